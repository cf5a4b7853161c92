package routes

import (
	"scentiva/auth"
	"scentiva/cart"
	"scentiva/coupons"
	"scentiva/middleware"
	"scentiva/orders"
	"scentiva/products"
	"scentiva/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
}

func AddProductRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/products", products.GetProducts)
	router.GET("/api/products/:productid", products.GetProduct)

	admin := middleware.Chain(middleware.Authenticate, middleware.RequireRoles("admin"))
	router.POST("/api/products", admin(products.CreateProduct))
	router.PUT("/api/products/:productid", admin(products.UpdateProduct))
}

func AddCartRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/cart", rl.Limit(middleware.Authenticate(cart.AddToCart)))
	router.GET("/api/cart", middleware.Authenticate(cart.GetCart))
	router.PUT("/api/cart", middleware.Authenticate(cart.UpdateQuantity))
	router.DELETE("/api/cart", middleware.Authenticate(cart.ClearCart))
}

func AddCouponRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *coupons.Handlers) {
	router.POST("/api/coupons/apply", rl.Limit(middleware.Authenticate(h.ApplyCoupon)))
	router.GET("/api/coupons/public", h.PublicCoupons)

	admin := middleware.Chain(middleware.Authenticate, middleware.RequireRoles("admin"))
	router.POST("/api/admin/coupons", admin(coupons.CreateCoupon))
	router.PUT("/api/admin/coupons/:code", admin(coupons.UpdateCoupon))
	router.GET("/api/admin/coupons", admin(coupons.ListCoupons))
}

func AddPaymentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *orders.Handlers) {
	router.POST("/api/payment/razorpay/create-from-cart", rl.Limit(middleware.Authenticate(h.CreateFromCart)))
	router.POST("/api/payment/razorpay/verify", rl.Limit(middleware.Authenticate(h.VerifyPayment)))
}

func AddOrderRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *orders.Handlers, hub *orders.Hub) {
	router.GET("/api/orders/myorders", middleware.Authenticate(h.MyOrders))
	router.GET("/api/orders/order/:orderid", middleware.Authenticate(h.GetOrder))
	router.GET("/api/orders/order/:orderid/invoice", middleware.Authenticate(h.Invoice))
	router.GET("/api/orders/order/:orderid/updates", middleware.OptionalAuth(h.Updates(hub)))

	admin := middleware.Chain(middleware.Authenticate, middleware.RequireRoles("admin"))
	router.GET("/api/orders", admin(h.ListOrders))
	router.PUT("/api/orders/order/:orderid/status", admin(h.UpdateStatus))
}

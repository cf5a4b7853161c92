package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"scentiva/cart"
	"scentiva/coupons"
	"scentiva/db"
	"scentiva/inventory"
	"scentiva/mailer"
	"scentiva/mq"
	"scentiva/orders"
	"scentiva/ratelim"
	"scentiva/razorpay"
	"scentiva/routes"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func buildCheckout() (*coupons.Handlers, *orders.Handlers) {
	cartStore := cart.Store{}
	evaluator := coupons.NewEvaluator(coupons.MongoCouponStore{}, coupons.MongoOrderLookup{}, cartStore)

	svc := &orders.Service{
		Cart:          cartStore,
		Coupons:       evaluator,
		Gateway:       razorpay.NewFromEnv(),
		Orders:        orders.MongoStore{},
		Stock:         inventory.DecrementStock,
		Users:         orders.MongoUsers{},
		Mail:          mailer.NewFromEnv(),
		MerchantEmail: os.Getenv("MERCHANT_EMAIL"),
		RazorpayKeyID: os.Getenv("RAZORPAY_KEY_ID"),
		Emit:          mq.EmitOrderEvent,
		Now:           time.Now,
	}

	return &coupons.Handlers{Eval: evaluator}, &orders.Handlers{Svc: svc}
}

func setupRouter(rl *ratelim.RateLimiter, couponH *coupons.Handlers, orderH *orders.Handlers, hub *orders.Hub) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	routes.AddAuthRoutes(router, rl)
	routes.AddProductRoutes(router, rl)
	routes.AddCartRoutes(router, rl)
	routes.AddCouponRoutes(router, rl, couponH)
	routes.AddPaymentRoutes(router, rl, orderH)
	routes.AddOrderRoutes(router, rl, orderH, hub)

	return router
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	if err := db.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	rateLimiter := ratelim.NewRateLimiter()
	couponH, orderH := buildCheckout()

	// live order-status fan-out
	hub := orders.NewHub()
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go hub.Run(workerCtx)

	// cancel orphaned pending orders past their TTL
	ttlMin, _ := strconv.Atoi(os.Getenv("PENDING_ORDER_TTL_MIN"))
	if ttlMin <= 0 {
		ttlMin = 60
	}
	go orders.ReconcilePendingOrders(workerCtx, time.Duration(ttlMin)*time.Minute)

	router := setupRouter(rateLimiter, couponH, orderH, hub)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}

	if err := db.Client.Disconnect(ctx); err != nil {
		log.Printf("Mongo disconnect: %v", err)
	}

	log.Println("Server stopped cleanly")
}

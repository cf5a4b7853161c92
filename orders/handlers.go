package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"scentiva/coupons"
	"scentiva/models"
	"scentiva/rdx"
	"scentiva/utils"

	"github.com/julienschmidt/httprouter"
)

// Handlers exposes the checkout REST surface over a Service.
type Handlers struct {
	Svc *Service
}

// CreateFromCart starts a gateway checkout for the caller's cart.
// POST /api/payment/razorpay/create-from-cart
func (h *Handlers) CreateFromCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	var req struct {
		ShippingAddress models.ShippingAddress `json:"shippingAddress"`
		CouponCode      string                 `json:"couponCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.Svc.CreateFromCart(ctx, userID, req.ShippingAddress, req.CouponCode)
	if err != nil {
		h.respondCreateError(w, userID, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success":         true,
		"razorpayKey":     result.RazorpayKey,
		"razorpayOrderId": result.RazorpayOrderID,
		"amount":          result.Amount,
		"currency":        result.Currency,
		"orderId":         result.OrderID,
	})
}

func (h *Handlers) respondCreateError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart), errors.Is(err, coupons.ErrEmptyCart):
		utils.RespondWithError(w, http.StatusBadRequest, ErrEmptyCart.Error())
	case errors.Is(err, coupons.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, coupons.ErrNotFound.Error())
	case errors.Is(err, coupons.ErrExpired),
		errors.Is(err, coupons.ErrAlreadyUsed),
		errors.Is(err, coupons.ErrBelowMinimum):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrGatewayUnavailable):
		log.Printf("CreateFromCart: gateway failure for %s: %v", userID, err)
		utils.RespondWithError(w, http.StatusBadGateway, ErrGatewayUnavailable.Error())
	default:
		log.Printf("CreateFromCart: %s: %v", userID, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create payment order")
	}
}

// VerifyPayment authenticates the gateway callback and finalizes the order.
// POST /api/payment/razorpay/verify
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	var req struct {
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
		OrderID           string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	// Serialize concurrent verifications of the same order. The paid flip
	// is atomic anyway; the lock keeps duplicate side-effect attempts out
	// of the logs.
	if req.OrderID != "" {
		if acquired, err := rdx.AcquireLock(ctx, "verify:"+req.OrderID, 30*time.Second); err == nil {
			if !acquired {
				utils.RespondWithError(w, http.StatusConflict, "Verification already in progress")
				return
			}
			defer rdx.ReleaseLock(ctx, "verify:"+req.OrderID)
		}
	}

	order, err := h.Svc.Verify(ctx, VerifyInput{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		GatewaySignature: req.RazorpaySignature,
		OrderID:          req.OrderID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			utils.RespondWithError(w, http.StatusBadRequest, ErrMissingFields.Error())
		case errors.Is(err, ErrInvalidSignature):
			log.Printf("VerifyPayment: SECURITY invalid signature for order %s from %s", req.OrderID, r.RemoteAddr)
			utils.RespondWithError(w, http.StatusBadRequest, ErrInvalidSignature.Error())
		case errors.Is(err, ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, ErrNotFound.Error())
		case errors.Is(err, ErrGatewayMismatch):
			utils.RespondWithError(w, http.StatusBadRequest, ErrGatewayMismatch.Error())
		default:
			log.Printf("VerifyPayment: order %s: %v", req.OrderID, err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Payment verification failed")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "order": order})
}

// UpdateStatus moves an order along the fulfillment state machine.
// PUT /api/orders/order/:orderid/status (admin)
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Status is required")
		return
	}

	order, err := h.Svc.SetStatus(ctx, ps.ByName("orderid"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, ErrNotFound.Error())
		case errors.Is(err, ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("UpdateStatus: order %s: %v", ps.ByName("orderid"), err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update order status")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}

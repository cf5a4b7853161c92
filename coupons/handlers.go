package coupons

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"scentiva/db"
	"scentiva/models"
	"scentiva/rdx"
	"scentiva/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

const publicListCacheKey = "coupons:public"
const publicListCacheTTL = 2 * time.Minute

// Handlers exposes the coupon REST surface over an Evaluator.
type Handlers struct {
	Eval *Evaluator
}

// ApplyCoupon previews a code against the caller's cart.
// POST /api/coupons/apply
func (h *Handlers) ApplyCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Coupon code is required")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	preview, err := h.Eval.Preview(ctx, req.Code, userID)
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("ApplyCoupon: preview %q for %s failed: %v", req.Code, userID, err)
		}
		utils.RespondWithError(w, status, msg)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, preview)
}

// PublicCoupons lists active, unexpired coupons with safe fields only.
// Unauthenticated; cached briefly in Redis.
// GET /api/coupons/public
func (h *Handlers) PublicCoupons(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if cached, err := rdx.RdxGet(publicListCacheKey); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	now := time.Now()
	filter := bson.M{
		"isActive": true,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$exists": false}},
			{"expiresAt": time.Time{}},
			{"expiresAt": bson.M{"$gt": now}},
		},
	}
	list, err := utils.FindAndDecode[models.PublicCoupon](ctx, db.CouponCollection, filter)
	if err != nil {
		log.Println("PublicCoupons find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch coupons")
		return
	}
	if list == nil {
		list = []models.PublicCoupon{}
	}

	if data, err := json.Marshal(list); err == nil {
		if err := rdx.RdxSet(publicListCacheKey, string(data), publicListCacheTTL); err != nil {
			log.Println("PublicCoupons cache set error:", err)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrExpired):
		return http.StatusBadRequest, ErrExpired.Error()
	case errors.Is(err, ErrAlreadyUsed):
		return http.StatusBadRequest, ErrAlreadyUsed.Error()
	case errors.Is(err, ErrEmptyCart):
		return http.StatusBadRequest, ErrEmptyCart.Error()
	case errors.Is(err, ErrBelowMinimum):
		return http.StatusBadRequest, ErrBelowMinimum.Error()
	default:
		return http.StatusInternalServerError, "Could not apply coupon"
	}
}

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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Pointer fields distinguish "omitted" from "set to zero", so partial
// updates never touch terms the payload did not carry.
type couponInput struct {
	Code            string     `json:"code"`
	DiscountPercent float64    `json:"discountPercent"`
	MaxDiscount     *float64   `json:"maxDiscount"`
	MinOrderValue   *float64   `json:"minOrderValue"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	Active          *bool      `json:"isActive"`
}

func (in *couponInput) validate() string {
	if NormalizeCode(in.Code) == "" {
		return "Coupon code is required"
	}
	if in.DiscountPercent < 1 || in.DiscountPercent > 90 {
		return "discountPercent must be between 1 and 90"
	}
	if in.MaxDiscount != nil && *in.MaxDiscount < 0 {
		return "maxDiscount must be non-negative"
	}
	if in.MinOrderValue != nil && *in.MinOrderValue < 0 {
		return "minOrderValue must be non-negative"
	}
	return ""
}

// updateSet builds the $set document for a partial update, touching only
// the fields the payload carried.
func (in *couponInput) updateSet() (bson.M, string) {
	set := bson.M{"updatedAt": time.Now()}
	if in.DiscountPercent != 0 {
		if in.DiscountPercent < 1 || in.DiscountPercent > 90 {
			return nil, "discountPercent must be between 1 and 90"
		}
		set["discountPercent"] = in.DiscountPercent
	}
	if in.MaxDiscount != nil {
		if *in.MaxDiscount < 0 {
			return nil, "maxDiscount must be non-negative"
		}
		set["maxDiscount"] = *in.MaxDiscount
	}
	if in.MinOrderValue != nil {
		if *in.MinOrderValue < 0 {
			return nil, "minOrderValue must be non-negative"
		}
		set["minOrderValue"] = *in.MinOrderValue
	}
	if in.ExpiresAt != nil {
		set["expiresAt"] = *in.ExpiresAt
	}
	if in.Active != nil {
		set["isActive"] = *in.Active
	}
	return set, ""
}

// CreateCoupon registers a new code. Admin only.
// POST /api/admin/coupons
func CreateCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in couponInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if msg := in.validate(); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now()
	coupon := models.Coupon{
		CouponID:        "CPN" + utils.GenerateID(10),
		Code:            NormalizeCode(in.Code),
		DiscountPercent: in.DiscountPercent,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.MaxDiscount != nil {
		coupon.MaxDiscount = *in.MaxDiscount
	}
	if in.MinOrderValue != nil {
		coupon.MinOrderValue = *in.MinOrderValue
	}
	if in.ExpiresAt != nil {
		coupon.ExpiresAt = *in.ExpiresAt
	}
	if in.Active != nil {
		coupon.Active = *in.Active
	}

	if _, err := db.CouponCollection.InsertOne(ctx, coupon); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "Coupon code already exists")
			return
		}
		log.Println("CreateCoupon insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create coupon")
		return
	}

	rdx.RdxDel(publicListCacheKey)
	utils.RespondWithJSON(w, http.StatusCreated, coupon)
}

// UpdateCoupon edits an existing code's terms or toggles it.
// PUT /api/admin/coupons/:code
func UpdateCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	code := NormalizeCode(ps.ByName("code"))

	var in couponInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	set, msg := in.updateSet()
	if msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	var updated models.Coupon
	err := db.CouponCollection.FindOneAndUpdate(ctx,
		bson.M{"code": code},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "Coupon not found")
		return
	}
	if err != nil {
		log.Println("UpdateCoupon error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update coupon")
		return
	}

	rdx.RdxDel(publicListCacheKey)
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// ListCoupons returns every coupon including inactive ones. Admin only.
// GET /api/admin/coupons
func ListCoupons(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := utils.FindAndDecode[models.Coupon](ctx, db.CouponCollection, bson.M{})
	if err != nil {
		log.Println("ListCoupons find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch coupons")
		return
	}
	if list == nil {
		list = []models.Coupon{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

package coupons

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scentiva/globals"
	"scentiva/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyRequest(body, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/coupons/apply", strings.NewReader(body))
	if userID != "" {
		ctx := context.WithValue(req.Context(), globals.UserIDKey, userID)
		req = req.WithContext(ctx)
	}
	return req
}

func TestApplyCouponStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		coupons    *mockCouponStore
		orders     *mockOrderLookup
		cart       *mockCart
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown code maps to 404",
			coupons:    &mockCouponStore{err: ErrNotFound},
			orders:     &mockOrderLookup{},
			cart:       &mockCart{items: cartOf(100, 1)},
			wantStatus: http.StatusNotFound,
			wantError:  ErrNotFound.Error(),
		},
		{
			name: "expired maps to 400",
			coupons: &mockCouponStore{coupon: &models.Coupon{
				Code: "OLD", DiscountPercent: 10, Active: true,
				ExpiresAt: fixedNow().Add(-time.Hour),
			}},
			orders:     &mockOrderLookup{},
			cart:       &mockCart{items: cartOf(100, 1)},
			wantStatus: http.StatusBadRequest,
			wantError:  ErrExpired.Error(),
		},
		{
			name: "below minimum maps to 400",
			coupons: &mockCouponStore{coupon: &models.Coupon{
				Code: "BIG", DiscountPercent: 10, MinOrderValue: 1000, Active: true,
			}},
			orders:     &mockOrderLookup{},
			cart:       &mockCart{items: cartOf(100, 1)},
			wantStatus: http.StatusBadRequest,
			wantError:  ErrBelowMinimum.Error(),
		},
		{
			name: "already used maps to 400",
			coupons: &mockCouponStore{coupon: &models.Coupon{
				Code: "ONCE", DiscountPercent: 10, Active: true,
			}},
			orders:     &mockOrderLookup{used: true},
			cart:       &mockCart{items: cartOf(100, 1)},
			wantStatus: http.StatusBadRequest,
			wantError:  ErrAlreadyUsed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handlers{Eval: newEval(tt.coupons, tt.orders, tt.cart)}
			rec := httptest.NewRecorder()
			h.ApplyCoupon(rec, applyRequest(`{"code":"whatever"}`, "u1"), nil)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestApplyCouponSuccessShape(t *testing.T) {
	h := &Handlers{Eval: newEval(
		&mockCouponStore{coupon: &models.Coupon{Code: "SAVE10", DiscountPercent: 10, Active: true}},
		&mockOrderLookup{},
		&mockCart{items: cartOf(100, 2)},
	)}

	rec := httptest.NewRecorder()
	h.ApplyCoupon(rec, applyRequest(`{"code":"save10"}`, "u1"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var preview models.CouponPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, "SAVE10", preview.Code)
	assert.Equal(t, 200.0, preview.ItemsPrice)
	assert.Equal(t, 20.0, preview.Discount)
	assert.Equal(t, 240.0, preview.TotalAfterDiscount)
}

func TestApplyCouponRejectsBadRequests(t *testing.T) {
	h := &Handlers{Eval: newEval(&mockCouponStore{}, &mockOrderLookup{}, &mockCart{})}

	rec := httptest.NewRecorder()
	h.ApplyCoupon(rec, applyRequest(`{}`, "u1"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ApplyCoupon(rec, applyRequest(`{"code":"SAVE"}`, ""), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "test_secret"
	good := sign(secret, "order_abc", "pay_xyz")

	assert.True(t, VerifySignature(secret, "order_abc", "pay_xyz", good))
	assert.False(t, VerifySignature(secret, "order_abc", "pay_xyz", good+"00"))
	assert.False(t, VerifySignature(secret, "order_other", "pay_xyz", good))
	assert.False(t, VerifySignature("wrong_secret", "order_abc", "pay_xyz", good))
	assert.False(t, VerifySignature(secret, "order_abc", "pay_xyz", ""))
}

func newTestClient(url string) *Client {
	return &Client{
		KeyID:      "key",
		KeySecret:  "secret",
		BaseURL:    url,
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_live1","amount":63000,"currency":"INR","receipt":"rcpt_1","status":"created"}`))
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL).CreateOrder(context.Background(), 63000, "INR", "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, "order_live1", order.ID)
	assert.Equal(t, int64(63000), order.Amount)
	assert.Equal(t, "created", order.Status)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL).CreateOrder(context.Background(), 1, "INR", "rcpt_1")
	assert.Nil(t, order)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestCreateOrderUnreachable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	order, err := client.CreateOrder(context.Background(), 100, "INR", "rcpt_1")
	assert.Nil(t, order)
	assert.Error(t, err)
}

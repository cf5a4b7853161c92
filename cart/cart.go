package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"scentiva/db"
	"scentiva/inventory"
	"scentiva/models"
	"scentiva/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// canFulfill reports whether the requested quantity fits in stock. Both
// cart write paths enforce it so an over-stock cart state is unreachable.
func canFulfill(stock, requested int) bool {
	return requested <= stock
}

// Store resolves and clears user carts. It is the snapshot provider the
// coupon evaluator and the order service consume.
type Store struct{}

// Snapshot returns the user's current cart lines, priced as captured at
// add time.
func (Store) Snapshot(ctx context.Context, userID string) ([]models.CartItem, error) {
	return utils.FindAndDecode[models.CartItem](ctx, db.CartCollection, bson.M{"userId": userID})
}

// Clear removes every line of the user's cart. Invoked exactly once per
// verified payment.
func (Store) Clear(ctx context.Context, userID string) error {
	_, err := db.CartCollection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// AddToCart increments quantity if the product is already in the cart, or
// inserts a new line with the product's current price captured.
func AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Println("AddToCart decode error:", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if req.ProductID == "" || req.Quantity <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing or invalid fields")
		return
	}

	// Price and title are captured now; later product edits do not move
	// lines already in a cart.
	var product models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"productId": req.ProductID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Println("AddToCart product lookup error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add to cart")
		return
	}
	if !canFulfill(product.Stock, req.Quantity) {
		utils.RespondWithError(w, http.StatusConflict, inventory.ErrInsufficientStock.Error())
		return
	}

	filter := bson.M{"userId": userID, "productId": req.ProductID}
	update := bson.M{
		"$inc": bson.M{"quantity": req.Quantity},
		"$setOnInsert": bson.M{
			"title":   product.Name,
			"image":   product.Image,
			"price":   product.Price,
			"addedAt": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := db.CartCollection.UpdateOne(ctx, filter, update, opts); err != nil {
		log.Println("AddToCart UpdateOne error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add to cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// GetCart returns all cart items for the user.
func GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, err := Store{}.Snapshot(ctx, userID)
	if err != nil {
		log.Println("GetCart error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve cart")
		return
	}
	if items == nil {
		items = []models.CartItem{}
	}

	utils.RespondWithJSON(w, http.StatusOK, items)
}

// UpdateQuantity sets the quantity of one cart line; zero removes it.
func UpdateQuantity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" || req.Quantity < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if req.Quantity > 0 {
		var product models.Product
		err := db.ProductCollection.FindOne(ctx, bson.M{"productId": req.ProductID}).Decode(&product)
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		if err != nil {
			log.Println("UpdateQuantity product lookup error:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update cart")
			return
		}
		if !canFulfill(product.Stock, req.Quantity) {
			utils.RespondWithError(w, http.StatusConflict, inventory.ErrInsufficientStock.Error())
			return
		}
	}

	filter := bson.M{"userId": userID, "productId": req.ProductID}
	if req.Quantity == 0 {
		if _, err := db.CartCollection.DeleteOne(ctx, filter); err != nil {
			log.Println("UpdateQuantity delete error:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update cart")
			return
		}
	} else {
		res, err := db.CartCollection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"quantity": req.Quantity}})
		if err != nil {
			log.Println("UpdateQuantity update error:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update cart")
			return
		}
		if res.MatchedCount == 0 {
			utils.RespondWithError(w, http.StatusNotFound, "Item not in cart")
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ClearCart empties the caller's cart.
func ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := (Store{}).Clear(ctx, userID); err != nil {
		log.Println("ClearCart error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

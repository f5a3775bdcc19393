package entity

import "time"

type CartItem struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"userId"`
	ProductID string    `json:"product_id" firestore:"productId"`
	Quantity  int       `json:"quantity" firestore:"quantity"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// CartItemID is the document id of the single row a user may hold for a product.
func CartItemID(userID, productID string) string {
	return userID + "_" + productID
}

// CartLine is a cart row joined with its product.
type CartLine struct {
	CartItem
	Product *Product `json:"product"`
}

func (l CartLine) LineTotal() int64 {
	if l.Product == nil {
		return 0
	}
	return l.Product.Price * int64(l.Quantity)
}

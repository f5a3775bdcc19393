package entity

import (
	"time"
)

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"

	ConditionNew  = "new"
	ConditionUsed = "used"

	MaxProductImages = 5
)

type Product struct {
	ID          string    `json:"id" firestore:"id"`
	SellerID    string    `json:"seller_id" firestore:"sellerId"`
	SellerName  string    `json:"seller_name,omitempty" firestore:"sellerName,omitempty"`
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description" firestore:"description"`
	Price       int64     `json:"price" firestore:"price"`
	Stock       int       `json:"stock" firestore:"stock"`
	Category    string    `json:"category" firestore:"category"`
	Condition   string    `json:"condition" firestore:"condition"`
	Weight      int       `json:"weight,omitempty" firestore:"weight,omitempty"`
	Images      []string  `json:"images" firestore:"images"`
	District    string    `json:"district" firestore:"district"`
	Subdistrict string    `json:"subdistrict" firestore:"subdistrict"`
	Status      string    `json:"status" firestore:"status"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// ProductFilter narrows product listings. Zero values mean "any".
type ProductFilter struct {
	Category   string
	SellerID   string
	ActiveOnly bool
}

package entity

import "time"

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
}

type OrderItem struct {
	ProductID string `json:"product_id" firestore:"productId"`
	Name      string `json:"name" firestore:"name"`
	Quantity  int    `json:"quantity" firestore:"quantity"`
	Price     int64  `json:"price" firestore:"price"`
}

// ShippingAddress is a copy of the address at checkout time.
type ShippingAddress struct {
	ReceiverName string `json:"receiver_name" firestore:"receiverName"`
	Phone        string `json:"phone" firestore:"phone"`
	Address      string `json:"address" firestore:"address"`
	District     string `json:"district" firestore:"district"`
	Subdistrict  string `json:"subdistrict" firestore:"subdistrict"`
}

type OrderShippingMethod struct {
	ID   string `json:"id" firestore:"id"`
	Name string `json:"name" firestore:"name"`
	Cost int64  `json:"cost" firestore:"cost"`
}

type Order struct {
	ID              string              `json:"id" firestore:"id"`
	UserID          string              `json:"user_id" firestore:"userId"`
	Items           []OrderItem         `json:"items" firestore:"items"`
	ShippingAddress ShippingAddress     `json:"shipping_address" firestore:"shippingAddress"`
	ShippingMethod  OrderShippingMethod `json:"shipping_method" firestore:"shippingMethod"`
	PaymentMethod   string              `json:"payment_method" firestore:"paymentMethod"`
	Subtotal        int64               `json:"subtotal" firestore:"subtotal"`
	ShippingCost    int64               `json:"shipping_cost" firestore:"shippingCost"`
	TotalAmount     int64               `json:"total_amount" firestore:"totalAmount"`
	Status          string              `json:"status" firestore:"status"`
	PaymentStatus   string              `json:"payment_status" firestore:"paymentStatus"`
	CreatedAt       time.Time           `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time           `json:"updated_at" firestore:"updatedAt"`
}

func IsOrderStatus(s string) bool {
	return contains(OrderStatuses, s)
}

func IsPaymentStatus(s string) bool {
	return contains(PaymentStatuses, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

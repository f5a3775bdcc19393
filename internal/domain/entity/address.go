package entity

import "time"

const MaxListedAddresses = 10

type Address struct {
	ID           string    `json:"id" firestore:"id"`
	UserID       string    `json:"user_id" firestore:"userId"`
	ReceiverName string    `json:"receiver_name" firestore:"receiverName"`
	Phone        string    `json:"phone" firestore:"phone"`
	District     string    `json:"district" firestore:"district"`
	Subdistrict  string    `json:"subdistrict" firestore:"subdistrict"`
	Address      string    `json:"address" firestore:"address"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updatedAt"`
}

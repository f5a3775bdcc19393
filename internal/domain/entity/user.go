package entity

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserProfile is stored under users/{uid}. Any user can sell; the shop is
// just the ShopName/ShopDescription pair on the profile.
type UserProfile struct {
	UID             string    `json:"uid" firestore:"uid"`
	Email           string    `json:"email" firestore:"email"`
	DisplayName     string    `json:"display_name" firestore:"displayName"`
	PhoneNumber     string    `json:"phone_number,omitempty" firestore:"phoneNumber,omitempty"`
	PhotoURL        string    `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	Address         string    `json:"address,omitempty" firestore:"address,omitempty"`
	Role            string    `json:"role" firestore:"role"`
	ShopName        string    `json:"shop_name,omitempty" firestore:"shopName,omitempty"`
	ShopDescription string    `json:"shop_description,omitempty" firestore:"shopDescription,omitempty"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *UserProfile) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ProfileUpdate carries the fields a user may change. Nil means unchanged.
type ProfileUpdate struct {
	DisplayName     *string
	PhoneNumber     *string
	PhotoURL        *string
	Address         *string
	ShopName        *string
	ShopDescription *string
}

func (p ProfileUpdate) Apply(u *UserProfile) {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.PhotoURL != nil {
		u.PhotoURL = *p.PhotoURL
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.ShopName != nil {
		u.ShopName = *p.ShopName
	}
	if p.ShopDescription != nil {
		u.ShopDescription = *p.ShopDescription
	}
}

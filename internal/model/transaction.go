package model

import "time"

// Transaction is the immutable record of one completed sale. Created
// exactly once per successful purchase, inside the same database
// transaction that moves the balance — never updated or deleted.
type Transaction struct {
	ID        string    `json:"id"`
	ArtworkID string    `json:"artworkId"`
	SellerID  string    `json:"sellerId"`
	BuyerID   string    `json:"buyerId"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// Checkin records one daily reward claim. The UNIQUE(user_id, day)
// constraint is the idempotency guard: a second claim on the same day
// finds the row and aborts before granting anything.
//
// Day is the server's UTC calendar day formatted as "2006-01-02".
type Checkin struct {
	UserID        string    `json:"userId"`
	Day           string    `json:"day"`
	GrantedCommon int       `json:"grantedCommon"`
	GrantedRare   int       `json:"grantedRare"`
	CreatedAt     time.Time `json:"createdAt"`
}

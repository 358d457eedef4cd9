// Package model defines the data structures shared by the repository,
// service, and handler layers. Structs only — behavior that touches the
// database or HTTP lives in the other layers.
package model

import "time"

// User is a registered marketplace account.
//
// Balance is the user's pixel-coin holding in whole coins (there are no
// fractional pixel coins, so int64 — never floats for money). It is
// mutated only by the purchase transfer; it never goes negative because
// the purchase checks the buyer's balance inside the same transaction
// that debits it.
//
// PasswordHash is the bcrypt hash of the user's password. The json:"-"
// tag keeps it out of every API response.
type User struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

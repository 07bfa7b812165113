package domain

import "time"

// GiftCode is an admin-issued token redeemable once per user for a fixed
// credit amount. A code may be redeemed by many distinct users.
type GiftCode struct {
	Code       string    `bson:"code" json:"code"`
	Credits    int       `bson:"credits" json:"credits"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	CreatedBy  string    `bson:"created_by" json:"created_by"`
	RedeemedBy []int64   `bson:"redeemed_by" json:"redeemed_by"`
}

// Redeemed reports whether userID already appears in the redeemer set.
func (g GiftCode) Redeemed(userID int64) bool {
	for _, id := range g.RedeemedBy {
		if id == userID {
			return true
		}
	}
	return false
}

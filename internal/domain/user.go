package domain

import "time"

// Lifecycle status values for a user.
const (
	StatusActive              = "active"
	StatusPendingRegistration = "pending-registration"
	StatusPendingDeposit      = "pending-deposit"
)

// Invite records a single successful referral.
type Invite struct {
	InvitedID int64     `bson:"invited_id" json:"invited_id"`
	Date      time.Time `bson:"date" json:"date"`
}

// User represents a Telegram user known to the bot. Users are created on
// first contact and never deleted.
type User struct {
	UserID        int64     `bson:"user_id" json:"user_id"`
	Username      string    `bson:"username" json:"username"`
	Credits       int       `bson:"credits" json:"credits"`
	InvitedBy     int64     `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	Status        string    `bson:"status" json:"status"`
	JoinedAt      time.Time `bson:"joined_at" json:"joined_at"`
	Invites       []Invite  `bson:"invites" json:"invites"`
	RedeemedCodes []string  `bson:"redeemed_codes" json:"redeemed_codes"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

package domain

import "time"

// Pending record status tags.
const (
	PendingAwaitingProof  = "awaiting-proof"
	PendingAwaitingReview = "awaiting-review"
)

// PendingRegistration tracks an unfinished account-creation step. At most
// one exists per user; starting a new one replaces any unresolved prior one.
type PendingRegistration struct {
	UserID    int64     `bson:"user_id" json:"user_id"`
	Status    string    `bson:"status" json:"status"`
	ProofRef  string    `bson:"proof_ref,omitempty" json:"proof_ref,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// PendingDeposit tracks an unfinished first-deposit step. Same single-record
// semantics as PendingRegistration.
type PendingDeposit struct {
	UserID    int64     `bson:"user_id" json:"user_id"`
	Status    string    `bson:"status" json:"status"`
	ProofRef  string    `bson:"proof_ref,omitempty" json:"proof_ref,omitempty"`
	Amount    int       `bson:"amount" json:"amount"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

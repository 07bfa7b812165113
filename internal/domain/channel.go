package domain

import "time"

// Channel status values.
const (
	ChannelPending  = "pending"
	ChannelActive   = "active"
	ChannelRejected = "rejected"
)

// Channel is an external broadcast target registered by a user.
type Channel struct {
	ChatID      int64     `bson:"chat_id" json:"chat_id"`
	Title       string    `bson:"title" json:"title"`
	OwnerID     int64     `bson:"owner_id" json:"owner_id"`
	AddedAt     time.Time `bson:"added_at" json:"added_at"`
	Status      string    `bson:"status" json:"status"`
	MemberCount int       `bson:"member_count" json:"member_count"`
}

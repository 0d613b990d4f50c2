package model

import "time"

// BerthLock is an advisory lock serialising reservation writes on one berth.
// Expired locks are removed by a TTL index and may be taken over.
type BerthLock struct {
	ID        string    `bson:"_id" json:"id"`
	Holder    string    `bson:"holder" json:"holder"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Package model contains the domain records persisted in the document store.
// Every record carries a string id (hex ObjectID) stored as _id, a status field
// and created/updated timestamps. References to other records are plain ids.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh hex-encoded ObjectID.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsID reports whether s is a valid hex ObjectID.
func IsID(s string) bool {
	return primitive.IsValidObjectID(s)
}

// Now is the clock used by services; tests may replace it.
var Now = func() time.Time {
	return time.Now().UTC()
}

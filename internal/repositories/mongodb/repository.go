package mongodb

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned by every Get* method when no document matches.
// Services translate it into their own not-found errors.
var ErrNotFound = errors.New("document not found")

// ErrDuplicateKey is returned when an insert collides with a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

func isDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return mongo.IsDuplicateKeyError(err)
}

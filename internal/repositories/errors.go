package repositories

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ErrNotFound is returned by every repository when the addressed record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique key, such as a user's email, is already taken.
var ErrDuplicate = errors.New("duplicate record")

// normalize maps driver specific "no rows" errors onto ErrNotFound.
func normalize(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

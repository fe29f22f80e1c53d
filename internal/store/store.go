package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound maps gorm.ErrRecordNotFound for callers that should not
	// depend on gorm.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict maps unique-constraint violations (SQLSTATE 23505).
	// Requires gorm.Config{TranslateError: true} on the session.
	ErrConflict = errors.New("store: conflict")
)

// Store is the repository over the four pipeline relations: aic, aic_archive,
// subscriptions and refunds.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by every backend when a record does not exist.
var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

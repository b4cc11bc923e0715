package services

import (
	"errors"
	"time"

	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"
)

// maxNumberAttempts bounds retries when a generated record number collides
const maxNumberAttempts = 5

// Clock returns the current time; services take one so tests can pin it
type Clock func() time.Time

// insertWithNumber generates a record number and runs insert, retrying on
// collision with a fresh number
func insertWithNumber(prefix string, at time.Time, insert func(number string) error) error {
	var err error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err = insert(domain.NewNumber(prefix, at))
		if !errors.Is(err, repositories.ErrDuplicateNumber) {
			return err
		}
	}
	return err
}

// normalizeDate drops the time of day so calendar dates compare and store cleanly
func normalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

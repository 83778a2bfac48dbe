package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort by creation time, so signal
// consumers can order events from a single broker by their id.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. Broadcast IDs are ULIDs so log lines
// for one fan-out sort by start time.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

package id

import (
	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. Event IDs sort by publish time.
func New() string {
	return ulid.Make().String()
}

// Package id generates collision-resistant identifiers for transfers,
// terminal sessions, windows, and tab instances.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh random identifier.
func New() string {
	return uuid.NewString()
}

// Instance derives a unique instance id from a base identifier, so multiple
// instances of one template or profile can coexist.
func Instance(base string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// AngelaMos | 2026
// ids.go

package core

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixOrder      = "ord"
	PrefixAdjustment = "adj"
)

// NewID returns a K-sortable "prefix_suffix" identifier. It panics on an
// invalid prefix, which is a programming error.
func NewID(prefix string) string {
	tid, err := typeid.Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("core: invalid id prefix %q: %v", prefix, err))
	}
	return tid.String()
}

// ParseID checks that s is a well formed identifier carrying prefix.
func ParseID(s, prefix string) error {
	tid, err := typeid.Parse(s)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", s, ErrInvalidInput)
	}
	if tid.Prefix() != prefix {
		return fmt.Errorf("id %q has prefix %q, want %q: %w",
			s, tid.Prefix(), prefix, ErrInvalidInput)
	}
	return nil
}

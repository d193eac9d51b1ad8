// Package safety guards catalog mutations: slug filters, confirmation tokens
// for destructive tools, and an append-only audit log.
package safety

import (
	"fmt"
	"path/filepath"

	"github.com/jamesprial/catalog-admin/internal/config"
)

// Filter decides which slugs may be mutated. Patterns use filepath.Match
// syntax.
//
// Rules:
//   - If both lists are empty (or nil), every slug is allowed.
//   - Denylist always takes priority over the allowlist.
//   - With a non-empty allowlist a slug must match at least one pattern.
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the provided allowlist and denylist.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// FilterFromConfig builds a Filter from a config section.
func FilterFromConfig(rf config.ResourceFilter) *Filter {
	return NewFilter(rf.Allowlist, rf.Denylist)
}

// IsAllowed reports whether slug is permitted. A nil Filter allows everything.
func (f *Filter) IsAllowed(slug string) bool {
	if f == nil {
		return true
	}
	for _, pattern := range f.denylist {
		if matchGlob(pattern, slug) {
			return false
		}
	}
	if len(f.allowlist) == 0 {
		return true
	}
	for _, pattern := range f.allowlist {
		if matchGlob(pattern, slug) {
			return true
		}
	}
	return false
}

// Check returns a *BlockedError when slug is not permitted.
func (f *Filter) Check(kind, slug string) error {
	if f.IsAllowed(slug) {
		return nil
	}
	return &BlockedError{Kind: kind, Slug: slug}
}

// BlockedError reports a mutation refused by a Filter.
type BlockedError struct {
	Kind string
	Slug string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s %q is blocked by safety filter", e.Kind, e.Slug)
}

// matchGlob treats malformed patterns as non-matching.
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}

// AngelaMos | 2026
// family.go

package entitlement

import (
	"context"
	"fmt"
	"sort"

	"github.com/carterperez-dev/episode-ledger/internal/catalog"
)

const (
	FamilyCourse = "course"
	FamilyShort  = "short"
)

// AssetStore turns a chapter into a playable URL. The engine never looks
// inside the URL.
type AssetStore interface {
	PlaybackURL(
		ctx context.Context,
		family string,
		chapter *catalog.Chapter,
	) (string, error)
}

// Family is one kind of content sharing the engine. Reader serves access
// checks and may be cached; purchases read Tables inside their transaction.
type Family struct {
	Name   string
	Tables catalog.Tables
	Reader catalog.Reader
	Assets AssetStore
}

type Registry struct {
	families map[string]*Family
}

func NewRegistry(families ...*Family) (*Registry, error) {
	r := &Registry{families: make(map[string]*Family, len(families))}
	for _, f := range families {
		if f.Name == "" || f.Reader == nil || f.Assets == nil {
			return nil, fmt.Errorf("family %q is incomplete", f.Name)
		}
		if _, dup := r.families[f.Name]; dup {
			return nil, fmt.Errorf("family %q registered twice", f.Name)
		}
		r.families[f.Name] = f
	}
	return r, nil
}

func (r *Registry) Get(name string) (*Family, error) {
	f, ok := r.families[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
	return f, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

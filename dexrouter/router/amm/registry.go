package amm

import (
	"errors"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// MaxAdapters bounds how many venues a router can be built with.
const MaxAdapters = 8

var (
	ErrTooManyAdapters  = fmt.Errorf("more than %d venue adapters", MaxAdapters)
	ErrDuplicateAdapter = errors.New("venue adapter registered twice")
	ErrNilAdapter       = errors.New("venue adapter is nil")
)

// Registry is the ordered, fixed set of venues a router consults. Registration
// order is preserved and is the tie-break order between equal quotes.
type Registry struct {
	adapters []AMM
}

// NewRegistry validates and freezes the adapter list.
func NewRegistry(adapters ...AMM) (*Registry, error) {
	if len(adapters) > MaxAdapters {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyAdapters, len(adapters))
	}
	seen := make(map[models.VenueID]struct{}, len(adapters))
	list := make([]AMM, 0, len(adapters))
	for i, a := range adapters {
		if a == nil {
			return nil, fmt.Errorf("%w at position %d", ErrNilAdapter, i)
		}
		name := a.Name()
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAdapter, name)
		}
		seen[name] = struct{}{}
		list = append(list, a)
	}
	return &Registry{adapters: list}, nil
}

func (r *Registry) Len() int { return len(r.adapters) }

// All returns the adapters in registration order.
func (r *Registry) All() []AMM {
	out := make([]AMM, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Names returns the venue ids in registration order.
func (r *Registry) Names() []models.VenueID {
	names := make([]models.VenueID, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// Compatible returns, in registration order, the adapters that can trade in for out.
func (r *Registry) Compatible(in, out models.AssetKind) []AMM {
	var compatible []AMM
	for _, a := range r.adapters {
		if a.CanHandlePair(in, out) {
			compatible = append(compatible, a)
		}
	}
	return compatible
}

// Find returns the adapter named id among candidates.
func Find(candidates []AMM, id models.VenueID) (AMM, bool) {
	for _, a := range candidates {
		if a.Name() == id {
			return a, true
		}
	}
	return nil, false
}

package tables

import (
	"sync/atomic"

	"go.uber.org/zap"

	"auto-rating/internal/errors"
	"auto-rating/internal/logging"
)

// Holder publishes the current table Set.
// Readers take a snapshot with Current and keep it for a whole calculation;
// Swap replaces the reference atomically and never touches a published Set.
type Holder struct {
	current atomic.Pointer[Set]
}

// NewHolder creates a Holder publishing s
func NewHolder(s *Set) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Current returns the published snapshot
func (h *Holder) Current() RatingTables {
	s := h.current.Load()
	if s == nil {
		return nil
	}
	return s
}

// Set returns the published snapshot as a concrete Set
func (h *Holder) Set() *Set {
	return h.current.Load()
}

// Swap publishes s and returns the previous Set
func (h *Holder) Swap(s *Set) *Set {
	prev := h.current.Swap(s)
	logging.Info("rating tables swapped",
		zap.String("previous", versionOf(prev)),
		zap.String("current", versionOf(s)))
	return prev
}

// Reload loads a complete Set from dir and publishes it.
// On failure the current Set stays published.
func (h *Holder) Reload(dir string) (*Set, error) {
	var (
		next *Set
		err  error
	)
	if dir == "" {
		next, err = LoadBundled()
	} else {
		next, err = LoadDir(dir)
	}
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "table reload failed", err)
	}
	h.Swap(next)
	return next, nil
}

func versionOf(s *Set) string {
	if s == nil {
		return ""
	}
	return s.version
}

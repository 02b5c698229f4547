// Package forecast aggregates the trained ensemble into point
// predictions with confidence scores.
package forecast

import (
	"sync/atomic"
	"time"

	"github.com/Alias1177/CryptoForecaster/internal/ml"
)

// ModelSet is the complete, immutable outcome of one training run for
// one (asset, horizon) pair. Fingerprint records the feature schema it
// was trained under.
type ModelSet struct {
	AssetID     string
	HorizonDays int
	Fingerprint string
	Models      []*ml.FittedModel
	PublishedAt time.Time
}

type setKey struct {
	assetID string
	horizon int
}

// Registry holds the latest ModelSet per (asset, horizon). Publish
// swaps a copied map atomically, so a concurrent reader sees either
// the old or the new set in full, never a partial update. A failed
// retraining simply never publishes, leaving the prior set live.
type Registry struct {
	sets atomic.Pointer[map[setKey]*ModelSet]
}

func NewRegistry() *Registry {
	r := &Registry{}
	empty := make(map[setKey]*ModelSet)
	r.sets.Store(&empty)
	return r
}

// Publish installs set as the latest for its (asset, horizon).
func (r *Registry) Publish(set *ModelSet) {
	for {
		old := r.sets.Load()
		next := make(map[setKey]*ModelSet, len(*old)+1)
		for k, v := range *old {
			next[k] = v
		}
		next[setKey{set.AssetID, set.HorizonDays}] = set
		if r.sets.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Lookup returns the latest set for (asset, horizon), if any.
func (r *Registry) Lookup(assetID string, horizon int) (*ModelSet, bool) {
	set, ok := (*r.sets.Load())[setKey{assetID, horizon}]
	return set, ok
}

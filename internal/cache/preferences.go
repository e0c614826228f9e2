package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
)

const preferenceKeyPrefix = "user_vibe:"

// Preferences stores taste vectors in any KVStore as JSON arrays.
type Preferences struct {
	kv ports.KVStore
}

var _ ports.PreferenceStore = (*Preferences)(nil)

// NewPreferences wraps kv.
func NewPreferences(kv ports.KVStore) *Preferences {
	return &Preferences{kv: kv}
}

// PreferenceKey returns the storage key for identity.
func PreferenceKey(identity string) string {
	return preferenceKeyPrefix + identity
}

func (p *Preferences) Load(ctx context.Context, identity string) (domain.Vector, bool, error) {
	raw, ok, err := p.kv.Get(ctx, PreferenceKey(identity))
	if err != nil {
		return domain.Vector{}, false, fmt.Errorf("preferences: load %s: %w", identity, err)
	}
	if !ok {
		return domain.Vector{}, false, nil
	}
	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil || len(values) != domain.VectorDims {
		// A corrupt vector is treated as absent; the next play rebuilds it.
		return domain.Vector{}, false, nil
	}
	return domain.VectorFromSlice(values), true, nil
}

func (p *Preferences) Save(ctx context.Context, identity string, v domain.Vector, ttl time.Duration) error {
	payload, err := json.Marshal(v.Slice())
	if err != nil {
		return fmt.Errorf("preferences: encode: %w", err)
	}
	if err := p.kv.Set(ctx, PreferenceKey(identity), payload, ttl); err != nil {
		return fmt.Errorf("preferences: save %s: %w", identity, err)
	}
	return nil
}

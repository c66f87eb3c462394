package charges

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySlabTable is returned when a slab table carries no tiers.
	ErrEmptySlabTable = errors.New("slab table has no tiers")
	// ErrSlabTierOrder indicates tier bounds are not strictly increasing.
	ErrSlabTierOrder = errors.New("slab tier bounds must be strictly increasing")
	// ErrSlabOpenTier indicates the table does not end with exactly one open tier.
	ErrSlabOpenTier = errors.New("slab table must end with exactly one open tier")
	// ErrSlabNegativeRate indicates a tier carries a negative rate.
	ErrSlabNegativeRate = errors.New("slab tier rate must not be negative")
)

// Tier maps an upper amount bound to a brokerage rate. A nil UpTo marks the
// open-ended final tier that covers every larger amount.
type Tier struct {
	UpTo *float64 `json:"upTo,omitempty"`
	Rate float64  `json:"rate"`
}

// Table is the ordered slab schedule for a single instrument.
type Table []Tier

// Validate checks the structural invariants of the table: at least one tier,
// strictly increasing positive bounds, and exactly one trailing open tier.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptySlabTable
	}
	for i, tier := range t {
		if tier.Rate < 0 {
			return ErrSlabNegativeRate
		}
		last := i == len(t)-1
		if tier.UpTo == nil {
			if !last {
				return ErrSlabOpenTier
			}
			continue
		}
		if last {
			return ErrSlabOpenTier
		}
		if *tier.UpTo <= 0 {
			return ErrSlabTierOrder
		}
		if i > 0 && *tier.UpTo <= *t[i-1].UpTo {
			return ErrSlabTierOrder
		}
	}
	return nil
}

// Resolve returns the rate of the first tier whose bound covers the amount.
// A validated table always matches: the trailing open tier has no bound.
func (t Table) Resolve(amount float64) float64 {
	for _, tier := range t {
		if tier.UpTo == nil || amount <= *tier.UpTo {
			return tier.Rate
		}
	}
	return 0
}

// ParseTable decodes a JSON tier list used for configuration overrides,
// e.g. [{"upTo":50000,"rate":0.006},{"rate":0.004}], and validates it.
func ParseTable(raw string) (Table, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode slab table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

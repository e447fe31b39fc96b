package entity

import (
	"github.com/cespare/xxhash/v2"

	"github.com/goliatone/go-catalog-cache/keys"
)

// Equal reports whether a and b name the same logical entity. Entities
// that can both form their primary key are equal when it matches and every
// other shared key agrees. Entities that cannot form it yet compare by
// canonical query, and never equal one that can.
func Equal(a, b Identifiable) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}

	pa, aok := a.Primary()
	pb, bok := b.Primary()
	if aok != bok {
		return false
	}
	if !aok {
		return a.Query().Equal(b.Query())
	}
	if !pa.Equal(pb) {
		return false
	}

	kb := byShape(b.Keys())
	for _, k := range a.Keys() {
		if other, ok := kb[k.Shape]; ok && !k.Equal(other) {
			return false
		}
	}
	return true
}

// Hash returns a hash consistent with Equal: the primary key when the entity
// can form it, otherwise the canonical query fingerprint.
func Hash(e Identifiable) uint64 {
	if k, ok := e.Primary(); ok {
		return xxhash.Sum64String(e.Type() + "|" + k.String())
	}
	return e.Query().Fingerprint()
}

func byShape(ks []keys.AlternateKey) map[string]keys.AlternateKey {
	out := make(map[string]keys.AlternateKey, len(ks))
	for _, k := range ks {
		out[k.Shape] = k
	}
	return out
}

// Package exec implements the physical pull-iterator operators (ColumnarScan,
// Selection, Project, HashJoin, HashAggregate, OrderBy, Limit), the
// expression-driven execution driver, and the Formatter output contract.
package exec

import (
	"math"

	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/types"
)

// Operator is the common physical-operator contract: open/next/close, plus
// the fixed-from-construction output schema.
type Operator interface {
	Open() error
	Next(b *batch.ExecBatch) (bool, error)
	Close() error
	OutputNames() []string
	OutputTypes() []types.Kind
	Dictionary() *dict.Dictionary
}

// keyPart is a normalised, dictionary-independent hash-key component.
// STRING parts are always stored decoded, so keys compare correctly even
// when the two sides of a join or the rows of an aggregate use different
// dictionaries -- the "decode, don't rely on code equality" resolution of
// the cross-dictionary Open Question.
type keyPart struct {
	kind types.Kind
	i    int64
	f    float64
	s    string
}

func buildKeyPart(d types.Datum, dictionary *dict.Dictionary) keyPart {
	if d.Kind == types.String {
		s := ""
		if dictionary != nil {
			s, _ = dictionary.Lookup(d.AsCode())
		}
		return keyPart{kind: types.String, s: s}
	}
	return keyPart{kind: d.Kind, i: d.I, f: d.F}
}

func hashKeyParts(parts []keyPart) uint64 {
	var seed uint64
	for _, p := range parts {
		var h uint64
		switch p.kind {
		case types.Double:
			h = math.Float64bits(p.f)
		case types.String:
			h = hashString(p.s)
		default:
			h = uint64(p.i)
		}
		seed ^= h + 0x9e3779b97f4a7c15 + (seed << 6) + (seed >> 2)
	}
	return seed
}

func hashString(s string) uint64 {
	var h uint64 = 14695981039346656037 // FNV offset basis
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211 // FNV prime
	}
	return h
}

func keyPartsEqual(a, b []keyPart) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].kind != b[i].kind {
			return false
		}
		switch a[i].kind {
		case types.Double:
			if a[i].f != b[i].f {
				return false
			}
		case types.String:
			if a[i].s != b[i].s {
				return false
			}
		default:
			if a[i].i != b[i].i {
				return false
			}
		}
	}
	return true
}

package interp

import (
	"fmt"

	"github.com/pyanalyze/pyanalyze/value"
)

// linearizeMRO computes the C3 linearization of cls given its direct bases'
// own (already-linearized) MROs, implementing spec §9's MRO invariant (test
// case S3: diamond inheritance linearizes consistently, an unorderable
// diamond reports `invalid-mro`). This mirrors Python's own algorithm
// (itself first published as the C3 superclass linearization) rather than
// anything in the teacher, which has no notion of class inheritance at all
// — BUILD-file rule functions don't have a base-class concept.
func linearizeMRO(cls *value.Class, bases []*value.Class) ([]*value.Class, error) {
	sequences := make([][]*value.Class, 0, len(bases)+1)
	for _, b := range bases {
		if b == nil || len(b.MRO) == 0 {
			continue
		}
		sequences = append(sequences, append([]*value.Class(nil), b.MRO...))
	}
	sequences = append(sequences, append([]*value.Class(nil), bases...))

	merged, err := c3Merge(sequences)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", cls.Name, err)
	}
	return append([]*value.Class{cls}, merged...), nil
}

// c3Merge implements the merge step of C3 linearization: repeatedly take the
// head of the first sequence that doesn't appear in the tail of any other
// sequence, until all sequences are exhausted.
func c3Merge(sequences [][]*value.Class) ([]*value.Class, error) {
	var result []*value.Class
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			return result, nil
		}
		var head *value.Class
		for _, seq := range sequences {
			candidate := seq[0]
			if !inAnyTail(candidate, sequences) {
				head = candidate
				break
			}
		}
		if head == nil {
			return nil, fmt.Errorf("inconsistent base class order")
		}
		result = append(result, head)
		for i, seq := range sequences {
			if len(seq) > 0 && seq[0] == head {
				sequences[i] = seq[1:]
			}
		}
	}
}

func dropEmpty(sequences [][]*value.Class) [][]*value.Class {
	out := sequences[:0]
	for _, seq := range sequences {
		if len(seq) > 0 {
			out = append(out, seq)
		}
	}
	return out
}

func inAnyTail(c *value.Class, sequences [][]*value.Class) bool {
	for _, seq := range sequences {
		for _, other := range seq[1:] {
			if other == c {
				return true
			}
		}
	}
	return false
}

package stub

import (
	"encoding/json"
	"io"

	"github.com/pyanalyze/pyanalyze/value"
)

// EntryKind tags a summary entry's shape (spec §4.H "Each summary entry is
// either a Class, Function, or Constant").
type EntryKind string

const (
	EntryClass    EntryKind = "class"
	EntryFunction EntryKind = "function"
	EntryConstant EntryKind = "constant"
)

// Entry is one member of a precomputed module summary, as produced by the
// external summary-generation tool the spec assumes but doesn't define
// (§4.H "produced by an external tool not specified here"). The on-disk
// encoding is JSON, parsed with encoding/json the way the teacher's own
// valueAsJSON/worker protocol traffics in JSON documents.
type Entry struct {
	Kind EntryKind `json:"kind"`
	Name string    `json:"name"`
	Doc  string    `json:"doc,omitempty"`

	// Function fields.
	Params   []string `json:"params,omitempty"`
	ReturnTy string   `json:"return_type,omitempty"`

	// Class fields.
	Bases   []string `json:"bases,omitempty"`
	Members []Entry  `json:"members,omitempty"`

	// Constant fields.
	TypeName string      `json:"type,omitempty"`
	Literal  interface{} `json:"literal,omitempty"`
}

// Summary is a full module summary: its dotted name plus top-level entries.
type Summary struct {
	Module  string  `json:"module"`
	Entries []Entry `json:"entries"`
}

// ParseSummary decodes a summary document.
func ParseSummary(r io.Reader) (*Summary, error) {
	var s Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ToModule renders a Summary as a value.Module with a fully-populated
// top-level member dictionary (spec §4.H).
func ToModule(s *Summary) value.Module {
	members := make(map[string]value.Set, len(s.Entries))
	for _, e := range s.Entries {
		members[e.Name] = value.NewSet(entryToValue(s.Module, e, 0))
	}
	return value.Module{Name: s.Module, Members: members}
}

func entryToValue(module string, e Entry, offset int) value.Value {
	switch e.Kind {
	case EntryClass:
		cls := &value.Class{
			Def:     value.DefID{Module: module, Offset: offset},
			Name:    e.Name,
			Members: map[string]value.Set{},
		}
		cls.MRO = []*value.Class{cls}
		for i, m := range e.Members {
			cls.Members[m.Name] = value.NewSet(entryToValue(module, m, offset+i+1))
		}
		return cls
	case EntryFunction:
		return value.Function{
			Def:      value.DefID{Module: module, Offset: offset},
			Name:     e.Name,
			Interner: value.NewInterner(),
			Returns:  map[uint64]value.Handle{},
		}
	default:
		return value.Constant{TypeName: e.TypeName, Literal: e.Literal}
	}
}

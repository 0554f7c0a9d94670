// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sources

import "iter"

// Selection is a set of source descriptions. A nil Selection selects everything;
// an empty one selects nothing.
type Selection map[string]struct{}

// NewSelection builds a non-nil selection from descriptions.
func NewSelection(descriptions []string) Selection {
	s := make(Selection, len(descriptions))
	for _, d := range descriptions {
		s[d] = struct{}{}
	}
	return s
}

// Contains reports whether description is selected.
func (s Selection) Contains(description string) bool {
	if s == nil {
		return true
	}
	_, ok := s[description]
	return ok
}

// Entry is one element of an enumeration: a source, or a category marker when
// Source is nil.
type Entry struct {
	Category string
	Source   *Source
}

// IsCategory reports whether the entry only marks the start of a category.
func (e Entry) IsCategory() bool {
	return e.Source == nil
}

// Collect materializes the sources of an enumeration, dropping category markers.
func Collect(seq iter.Seq[Entry]) []*Source {
	var out []*Source
	for e := range seq {
		if !e.IsCategory() {
			out = append(out, e.Source)
		}
	}
	return out
}

// Group is the sources of one category. The uncategorized group has an empty name.
type Group struct {
	Category string
	Sources  []*Source
}

// GroupByCategory collects an enumeration into categories in first-seen order.
// Category markers create their group even when no source follows.
func GroupByCategory(seq iter.Seq[Entry]) []Group {
	var groups []Group
	index := make(map[string]int)
	groupFor := func(name string) int {
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Category: name})
		}
		return i
	}
	for e := range seq {
		i := groupFor(e.Category)
		if !e.IsCategory() {
			groups[i].Sources = append(groups[i].Sources, e.Source)
		}
	}
	return groups
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sources

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/ManuGH/epgimport/internal/catalog"
)

// Default attribute values of a <source> element.
const (
	DefaultParser = "gen_xmltv"
	DefaultFormat = "xml"
)

// Source is one configured EPG feed.
type Source struct {
	Parser      string
	Format      string
	NoCheck     int
	URLs        []string
	URL         string // the mirror picked for this enumeration
	Description string
	Category    string
	TimeOffset  int // minutes
	Channels    *catalog.Catalog
}

// Picker chooses one of a source's candidate URLs. urls is never empty.
type Picker func(urls []string) string

// RandomPicker spreads load over mirrors by picking uniformly at random.
func RandomPicker(urls []string) string {
	return urls[rand.IntN(len(urls))]
}

// FirstPicker always picks the first URL.
func FirstPicker(urls []string) string {
	return urls[0]
}

// ParseOffset converts a "+HHMM" or "-HHMM" offset into signed minutes.
// Anything malformed yields 0.
func ParseOffset(s string) int {
	s = strings.TrimSpace(s)
	sign := 1
	switch {
	case len(s) == 5 && s[0] == '+':
		s = s[1:]
	case len(s) == 5 && s[0] == '-':
		sign = -1
		s = s[1:]
	case len(s) != 4:
		return 0
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}
	hh, _ := strconv.Atoi(s[:2])
	mm, _ := strconv.Atoi(s[2:])
	if mm > 59 {
		return 0
	}
	return sign * (hh*60 + mm)
}

func parseNoCheck(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

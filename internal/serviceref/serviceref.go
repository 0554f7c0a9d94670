// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package serviceref parses Enigma2 service references and decides which of
// them may receive EPG data.
package serviceref

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ManuGH/epgimport/internal/catalog"
)

// ErrMalformed is returned for references that are not colon-separated hex fields.
var ErrMalformed = errors.New("malformed service reference")

// Reference types that carry a stream URL instead of DVB triplets.
const (
	TypeDVB         = 1
	TypeGStreamer   = 4097
	TypeExtPlayer   = 5001
	TypeExtPlayer3  = 5002
	minFieldsNeeded = 10
)

// DefaultServiceTypes are the TV service types: SD, MPEG2 HD, H.264 SD/HD, HEVC
// and the UHD variants.
var DefaultServiceTypes = []int{1, 17, 22, 25, 31, 134, 195}

// Ref is a parsed service reference.
type Ref struct {
	RefType     int
	Flags       int
	ServiceType int
	SID         int
	TSID        int
	ONID        int
	Namespace   int64
	Raw         string
}

// IsIPTV reports whether the reference points at a stream URL.
func (r Ref) IsIPTV() bool {
	switch r.RefType {
	case TypeGStreamer, TypeExtPlayer, TypeExtPlayer3:
		return true
	}
	return false
}

// Normalize trims a reference, uppercases its hex fields and removes trailing colons.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)
	for strings.HasSuffix(s, ":") {
		s = strings.TrimSuffix(s, ":")
	}
	return s
}

// Parse parses the leading numeric fields of a reference.
func Parse(s string) (Ref, error) {
	raw := strings.TrimSpace(s)
	fields := strings.Split(raw, ":")
	if len(fields) < minFieldsNeeded {
		return Ref{}, fmt.Errorf("%w: %q has %d fields", ErrMalformed, raw, len(fields))
	}

	refType, err := strconv.Atoi(fields[0])
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q: reference type: %v", ErrMalformed, raw, err)
	}

	hex := make([]int64, 6)
	for i := range hex {
		v, err := strconv.ParseInt(fields[i+1], 16, 64)
		if err != nil {
			return Ref{}, fmt.Errorf("%w: %q: field %d: %v", ErrMalformed, raw, i+1, err)
		}
		hex[i] = v
	}

	return Ref{
		RefType:     refType,
		Flags:       int(hex[0]),
		ServiceType: int(hex[1]),
		SID:         int(hex[2]),
		TSID:        int(hex[3]),
		ONID:        int(hex[4]),
		Namespace:   hex[5],
		Raw:         raw,
	}, nil
}

// Acceptor returns a predicate for catalog parsing. It accepts well-formed DVB
// references whose service type is listed (any type when serviceTypes is
// empty) and, with allowIPTV, stream references.
func Acceptor(serviceTypes []int, allowIPTV bool) catalog.AcceptFunc {
	types := slices.Clone(serviceTypes)
	return func(ref string) bool {
		r, err := Parse(ref)
		if err != nil {
			return false
		}
		if r.IsIPTV() {
			return allowIPTV
		}
		if r.RefType != TypeDVB {
			return false
		}
		return len(types) == 0 || slices.Contains(types, r.ServiceType)
	}
}

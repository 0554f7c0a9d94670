// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package serviceref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "1:0:19:283D:3FB:1:C00000:0:0:0", Normalize(" 1:0:19:283d:3fb:1:c00000:0:0:0::\n"))
	assert.Equal(t, "", Normalize(":::"))
}

func TestParse(t *testing.T) {
	r, err := Parse("1:0:19:283D:3FB:1:C00000:0:0:0:")
	require.NoError(t, err)
	assert.Equal(t, Ref{
		RefType:     1,
		Flags:       0,
		ServiceType: 0x19,
		SID:         0x283D,
		TSID:        0x3FB,
		ONID:        1,
		Namespace:   0xC00000,
		Raw:         "1:0:19:283D:3FB:1:C00000:0:0:0:",
	}, r)
	assert.False(t, r.IsIPTV())
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "1:0:19", "x:0:19:283D:3FB:1:C00000:0:0:0:", "1:0:zz:283D:3FB:1:C00000:0:0:0:"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrMalformed, in)
	}
}

func TestAcceptor(t *testing.T) {
	iptv := "4097:0:1:0:0:0:0:0:0:0:http%3a//example.com/live.ts:Example"

	tests := []struct {
		name      string
		types     []int
		allowIPTV bool
		ref       string
		want      bool
	}{
		{"h264 hd listed", DefaultServiceTypes, false, "1:0:19:283D:3FB:1:C00000:0:0:0:", true},
		{"radio not listed", DefaultServiceTypes, false, "1:0:2:283D:3FB:1:C00000:0:0:0:", false},
		{"any type when empty", nil, false, "1:0:2:283D:3FB:1:C00000:0:0:0:", true},
		{"iptv allowed", DefaultServiceTypes, true, iptv, true},
		{"iptv refused", DefaultServiceTypes, false, iptv, false},
		{"unknown ref type", nil, true, "2:0:1:0:0:0:0:0:0:0:", false},
		{"garbage", nil, true, "not a reference", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Acceptor(tt.types, tt.allowIPTV)(tt.ref))
		})
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_FindsViolations(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages with the go command")
	}
	dir, err := filepath.Abs(filepath.Join("testdata", "src", "violation"))
	require.NoError(t, err)

	violations, err := Analyze(dir, "./...")
	require.NoError(t, err)

	require.Len(t, violations, 2)
	assert.Contains(t, violations[0], `violation.go:5: forbidden import "log"`)
	assert.Contains(t, violations[1], "violation.go:10: forbidden call fmt.Println")
}

func TestAnalyze_RepositoryIsClean(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages with the go command")
	}
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)

	violations, err := Analyze(root, "./internal/...")
	require.NoError(t, err)
	assert.Empty(t, violations)
}

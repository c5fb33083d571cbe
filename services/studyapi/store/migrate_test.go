// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    int
		wantErr bool
	}{
		{"standard", "0001_create_sessions.sql", 1, false},
		{"data migration", "0009_invert_cognitive_load.sql", 9, false},
		{"no prefix", "create_sessions.sql", 0, true},
		{"no underscore", "0001.sql", 0, true},
		{"non numeric", "abcd_create.sql", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := migrationVersion(tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// The runner applies files in lexicographic order and trusts the numeric
// prefix, so the embedded set must be contiguous from 1 with no
// duplicates.
func TestEmbeddedMigrationsAreSequential(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	versions := make([]int, 0, len(entries))
	for _, e := range entries {
		require.True(t, strings.HasSuffix(e.Name(), ".sql"), "unexpected file %s", e.Name())
		v, err := migrationVersion(e.Name())
		require.NoError(t, err, "file %s", e.Name())
		versions = append(versions, v)
	}

	sort.Ints(versions)
	for i, v := range versions {
		assert.Equal(t, i+1, v, "migration versions must be contiguous from 1")
	}
}

func TestEmbeddedMigrationsNotEmpty(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	for _, e := range entries {
		body, err := migrationFS.ReadFile("migrations/" + e.Name())
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(string(body)), "migration %s is empty", e.Name())
	}
}

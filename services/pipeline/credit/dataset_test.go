// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package credit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRows = `A11 6 A34 A43 1169 A65 A75 4 A93 A101 4 A121 67 A143 A152 2 A173 1 A192 A201 1
A12 48 A32 A43 5951 A61 A73 2 A92 A101 2 A121 22 A143 A152 1 A173 1 A191 A201 2
A14 12 A34 A46 2096 A61 A74 2 A93 A101 3 A121 49 A143 A152 1 A172 2 A191 A201 1
`

// mockHTTPClient returns a canned response without touching the network.
type mockHTTPClient struct {
	status int
	body   string
}

func (m *mockHTTPClient) Do(_ *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(strings.NewReader(m.body)),
	}, nil
}

func TestParse(t *testing.T) {
	ds, err := Parse(bytes.NewBufferString(sampleRows))
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Rows())
	assert.Len(t, ds.X[0], len(Features))

	// Labels: dataset class 1 -> 0 (approve), class 2 -> 1 (reject).
	assert.Equal(t, []int{0, 1, 0}, ds.Y)

	// checking_status A11 is the first code, duration is numeric.
	assert.Equal(t, 0.0, ds.X[0][0])
	assert.Equal(t, 6.0, ds.X[0][1])
	assert.Equal(t, "A11", ds.Raw[0][0])
}

func TestParseRejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short row", "A11 6 A34\n"},
		{"unknown code", strings.Replace(sampleRows, "A11", "A99", 1)},
		{"bad label", strings.Replace(sampleRows, "A201 1", "A201 3", 1)},
		{"empty", "\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestFetcherCachesDownload(t *testing.T) {
	dir := t.TempDir()
	f := NewFetcher("http://example.invalid/german.data", dir)
	f.HTTPClient = &mockHTTPClient{status: http.StatusOK, body: sampleRows}

	path, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "german.data"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRows, string(data))

	// Second fetch must hit the cache even if upstream now fails.
	f.HTTPClient = &mockHTTPClient{status: http.StatusInternalServerError}
	path2, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, path2)
}

func TestFetcherRejectsBadStatus(t *testing.T) {
	f := NewFetcher("http://example.invalid/german.data", t.TempDir())
	f.HTTPClient = &mockHTTPClient{status: http.StatusNotFound}
	_, err := f.Fetch(context.Background())
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestFeatureEncodeDecode(t *testing.T) {
	checking := Features[0]
	v, err := checking.Encode("A13")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, "200 DM or more", checking.Decode("A13"))
	assert.Equal(t, "200 DM or more", checking.DecodeIndex(2))

	duration := Features[1]
	v, err = duration.Encode("36")
	require.NoError(t, err)
	assert.Equal(t, 36.0, v)
	assert.Equal(t, "36 months", duration.Decode("36"))

	_, err = checking.Encode("A99")
	assert.Error(t, err)
}

func TestPersonasEncode(t *testing.T) {
	require.Len(t, Personas, 4)
	for _, p := range Personas {
		row, err := EncodePersona(p)
		require.NoError(t, err, "persona %s", p.ID)
		assert.Len(t, row, len(Features))
	}

	_, ok := PersonaByID("persona-03")
	assert.True(t, ok)
	_, ok = PersonaByID("persona-99")
	assert.False(t, ok)
}

func TestImmutableFeatures(t *testing.T) {
	immutable := map[string]bool{}
	for _, f := range Features {
		if !f.Mutable {
			immutable[f.Name] = true
		}
	}
	assert.True(t, immutable["age_years"])
	assert.True(t, immutable["foreign_worker"])
	assert.True(t, immutable["personal_status"])
	assert.False(t, immutable["credit_amount"])
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package eda

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CredLens/services/pipeline/credit"
)

const sampleRows = `A11 6 A34 A43 1169 A65 A75 4 A93 A101 4 A121 67 A143 A152 2 A173 1 A192 A201 1
A12 48 A32 A43 5951 A61 A73 2 A92 A101 2 A121 22 A143 A152 1 A173 1 A191 A201 2
A14 12 A34 A46 2096 A61 A74 2 A93 A101 3 A121 49 A143 A152 1 A172 2 A191 A201 1
A11 42 A32 A42 7882 A61 A74 2 A93 A103 4 A122 45 A143 A153 1 A173 2 A191 A201 2
`

func TestSummarize(t *testing.T) {
	ds, err := credit.Parse(strings.NewReader(sampleRows))
	require.NoError(t, err)

	rep := Summarize(ds)
	assert.Equal(t, 4, rep.Rows)
	assert.Equal(t, 2, rep.RejectCount)
	assert.InDelta(t, 0.5, rep.RejectRate, 1e-12)
	require.Len(t, rep.Features, len(credit.Features))

	duration := rep.Features[1]
	assert.Equal(t, "duration_months", duration.Name)
	assert.InDelta(t, 27.0, duration.Mean, 1e-9)
	assert.Equal(t, 6.0, duration.Min)
	assert.Equal(t, 48.0, duration.Max)
	// Longer durations correlate with rejection in this sample.
	assert.Greater(t, duration.LabelCorrelation, 0.5)
}

func TestReportWrite(t *testing.T) {
	ds, err := credit.Parse(strings.NewReader(sampleRows))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "artifacts", "eda.json")
	require.NoError(t, Summarize(ds).Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 4, decoded.Rows)
	assert.Len(t, decoded.Features, len(credit.Features))
}

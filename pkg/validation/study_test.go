// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParticipantCode(t *testing.T) {
	valid := []string{"PROLIFIC-9F3A", "AB12", "X0-Y1-Z2", "A1B2C3D4E5F6G7H8I9J0K1L2"}
	for _, code := range valid {
		assert.NoError(t, ValidateParticipantCode(code), "code %q should be valid", code)
	}

	invalid := []string{
		"",
		"abc",                       // lowercase
		"A",                         // too short
		"-ABC",                      // leading hyphen
		"AB12; DROP TABLE sessions", // injection attempt
		"A1B2C3D4E5F6G7H8I9J0K1L2M", // too long
	}
	for _, code := range invalid {
		assert.Error(t, ValidateParticipantCode(code), "code %q should be rejected", code)
	}
}

func TestSanitizeParticipantCode(t *testing.T) {
	got, err := SanitizeParticipantCode("  prolific-9f3a ")
	require.NoError(t, err)
	assert.Equal(t, "PROLIFIC-9F3A", got)

	_, err = SanitizeParticipantCode("nope!")
	assert.Error(t, err)
}

func TestValidatePersonaID(t *testing.T) {
	assert.NoError(t, ValidatePersonaID("persona-01"))
	assert.NoError(t, ValidatePersonaID("persona-42"))

	assert.Error(t, ValidatePersonaID(""))
	assert.Error(t, ValidatePersonaID("persona-1"))
	assert.Error(t, ValidatePersonaID("persona-001"))
	assert.Error(t, ValidatePersonaID("PERSONA-01"))
	assert.Error(t, ValidatePersonaID("persona-01' OR 1=1"))
}

func TestValidateLikert(t *testing.T) {
	for v := 1; v <= 5; v++ {
		assert.NoError(t, ValidateLikert("understanding", v))
	}
	assert.Error(t, ValidateLikert("understanding", 0))
	assert.Error(t, ValidateLikert("understanding", 6))
	assert.Error(t, ValidateLikert("understanding", -3))
}

func TestValidateLayer(t *testing.T) {
	for _, layer := range []string{"table", "dashboard", "narrative", "counterfactual"} {
		assert.NoError(t, ValidateLayer(layer))
	}
	assert.Error(t, ValidateLayer("gauge"))
	assert.Error(t, ValidateLayer(""))
	assert.Error(t, ValidateLayer("Table"))
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical
// operations.
//
// This package contains validators for participant-supplied inputs that end
// up in SQL statements, file paths, or log output. Using these validators
// prevents injection attacks and keeps garbage out of the study dataset.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// participantCodePattern matches valid participant codes.
// Codes are issued by the recruitment platform: uppercase letters and
// digits with optional hyphens, 4-24 characters.
var participantCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{3,23}$`)

// personaIDPattern matches the scripted persona identifiers
// (e.g. "persona-03").
var personaIDPattern = regexp.MustCompile(`^persona-[0-9]{2}$`)

// ValidateParticipantCode validates a recruitment-platform participant code.
//
// Valid codes:
//   - 4-24 characters
//   - Uppercase letters A-Z and digits 0-9
//   - Hyphens (-) as separators
//
// Returns an error if the code is invalid.
//
// Example:
//
//	if err := validation.ValidateParticipantCode(code); err != nil {
//	    return nil, fmt.Errorf("invalid participant code: %w", err)
//	}
func ValidateParticipantCode(code string) error {
	if code == "" {
		return fmt.Errorf("participant code cannot be empty")
	}
	if !participantCodePattern.MatchString(code) {
		return fmt.Errorf("invalid participant code format: %q (must be 4-24 uppercase alphanumeric chars or hyphens)", code)
	}
	return nil
}

// SanitizeParticipantCode normalizes and validates a participant code.
// Returns the uppercase code if valid, or an error if invalid.
func SanitizeParticipantCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := ValidateParticipantCode(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidatePersonaID validates a scripted persona identifier.
func ValidatePersonaID(id string) error {
	if id == "" {
		return fmt.Errorf("persona id cannot be empty")
	}
	if !personaIDPattern.MatchString(id) {
		return fmt.Errorf("invalid persona id: %q (expected form persona-NN)", id)
	}
	return nil
}

// ValidateLikert validates a 1-5 Likert response.
func ValidateLikert(field string, value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("%s must be between 1 and 5, got %d", field, value)
	}
	return nil
}

// ValidateLayer validates an explanation layer name against the four
// fixed presentation styles.
func ValidateLayer(layer string) error {
	switch layer {
	case "table", "dashboard", "narrative", "counterfactual":
		return nil
	default:
		return fmt.Errorf("unknown explanation layer: %q", layer)
	}
}

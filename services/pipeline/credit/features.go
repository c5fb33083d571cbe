// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package credit handles the Statlog German Credit dataset: download,
// parsing, feature decoding, and the scripted applicant personas shown
// to study participants.
package credit

import "fmt"

// Kind distinguishes how a raw column is encoded into the model matrix.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// FeatureSpec describes one of the 20 raw dataset columns.
//
// Categorical columns carry the dataset's attribute codes (A11, A12, ...)
// in Codes; the model matrix stores the index of the code within that
// slice. Labels maps each code to the text the study UI displays.
type FeatureSpec struct {
	Name    string            // snake_case identifier used in artifacts and the API
	Label   string            // human-readable feature name
	Unit    string            // display unit for numeric features ("months", "DM", ...)
	Kind    Kind
	Codes   []string          // categorical attribute codes in dataset order
	Labels  map[string]string // code -> display text
	Mutable bool              // eligible for counterfactual perturbation
}

// Decode renders a raw dataset value for display.
func (f FeatureSpec) Decode(raw string) string {
	if f.Kind == Numeric {
		if f.Unit != "" {
			return raw + " " + f.Unit
		}
		return raw
	}
	if label, ok := f.Labels[raw]; ok {
		return label
	}
	return raw
}

// Encode maps a raw dataset value to its model-matrix representation.
func (f FeatureSpec) Encode(raw string) (float64, error) {
	if f.Kind == Numeric {
		var v float64
		if _, err := fmt.Sscanf(raw, "%g", &v); err != nil {
			return 0, fmt.Errorf("feature %s: bad numeric value %q: %w", f.Name, raw, err)
		}
		return v, nil
	}
	for i, code := range f.Codes {
		if code == raw {
			return float64(i), nil
		}
	}
	return 0, fmt.Errorf("feature %s: unknown code %q", f.Name, raw)
}

// DecodeIndex renders an encoded categorical value back to display text.
// Used by the counterfactual search, which perturbs encoded values.
func (f FeatureSpec) DecodeIndex(v float64) string {
	if f.Kind == Numeric {
		return fmt.Sprintf("%g", v)
	}
	i := int(v)
	if i < 0 || i >= len(f.Codes) {
		return fmt.Sprintf("code[%d]", i)
	}
	return f.Labels[f.Codes[i]]
}

// Features is the ordered dictionary of the 20 German Credit columns.
// Order matches the dataset file; the label column follows last.
//
// Age, personal status, dependents, and foreign-worker status are
// deliberately immutable: a counterfactual that tells an applicant to be
// younger is not actionable advice.
var Features = []FeatureSpec{
	{
		Name: "checking_status", Label: "Checking account status", Kind: Categorical,
		Codes: []string{"A11", "A12", "A13", "A14"},
		Labels: map[string]string{
			"A11": "below 0 DM", "A12": "0 to 200 DM",
			"A13": "200 DM or more", "A14": "no checking account",
		},
		Mutable: true,
	},
	{Name: "duration_months", Label: "Loan duration", Unit: "months", Kind: Numeric, Mutable: true},
	{
		Name: "credit_history", Label: "Credit history", Kind: Categorical,
		Codes: []string{"A30", "A31", "A32", "A33", "A34"},
		Labels: map[string]string{
			"A30": "no credits taken", "A31": "all credits paid back duly",
			"A32": "existing credits paid back duly", "A33": "delay in paying off in the past",
			"A34": "critical account / other credits existing",
		},
		Mutable: false,
	},
	{
		Name: "purpose", Label: "Loan purpose", Kind: Categorical,
		Codes: []string{"A40", "A41", "A42", "A43", "A44", "A45", "A46", "A47", "A48", "A49", "A410"},
		Labels: map[string]string{
			"A40": "new car", "A41": "used car", "A42": "furniture or equipment",
			"A43": "radio or television", "A44": "domestic appliances", "A45": "repairs",
			"A46": "education", "A47": "vacation", "A48": "retraining",
			"A49": "business", "A410": "other",
		},
		Mutable: true,
	},
	{Name: "credit_amount", Label: "Credit amount", Unit: "DM", Kind: Numeric, Mutable: true},
	{
		Name: "savings_status", Label: "Savings account", Kind: Categorical,
		Codes: []string{"A61", "A62", "A63", "A64", "A65"},
		Labels: map[string]string{
			"A61": "below 100 DM", "A62": "100 to 500 DM", "A63": "500 to 1000 DM",
			"A64": "1000 DM or more", "A65": "unknown / no savings account",
		},
		Mutable: true,
	},
	{
		Name: "employment_since", Label: "Employment duration", Kind: Categorical,
		Codes: []string{"A71", "A72", "A73", "A74", "A75"},
		Labels: map[string]string{
			"A71": "unemployed", "A72": "less than 1 year", "A73": "1 to 4 years",
			"A74": "4 to 7 years", "A75": "7 years or more",
		},
		Mutable: true,
	},
	{Name: "installment_rate", Label: "Installment rate", Unit: "% of income", Kind: Numeric, Mutable: true},
	{
		Name: "personal_status", Label: "Personal status", Kind: Categorical,
		Codes: []string{"A91", "A92", "A93", "A94", "A95"},
		Labels: map[string]string{
			"A91": "male, divorced or separated", "A92": "female, divorced/separated/married",
			"A93": "male, single", "A94": "male, married or widowed", "A95": "female, single",
		},
		Mutable: false,
	},
	{
		Name: "other_debtors", Label: "Other debtors / guarantors", Kind: Categorical,
		Codes: []string{"A101", "A102", "A103"},
		Labels: map[string]string{
			"A101": "none", "A102": "co-applicant", "A103": "guarantor",
		},
		Mutable: true,
	},
	{Name: "residence_since", Label: "Years at current residence", Unit: "years", Kind: Numeric, Mutable: false},
	{
		Name: "property", Label: "Property owned", Kind: Categorical,
		Codes: []string{"A121", "A122", "A123", "A124"},
		Labels: map[string]string{
			"A121": "real estate", "A122": "savings agreement or life insurance",
			"A123": "car or other property", "A124": "unknown / no property",
		},
		Mutable: true,
	},
	{Name: "age_years", Label: "Age", Unit: "years", Kind: Numeric, Mutable: false},
	{
		Name: "other_installment_plans", Label: "Other installment plans", Kind: Categorical,
		Codes: []string{"A141", "A142", "A143"},
		Labels: map[string]string{
			"A141": "bank", "A142": "stores", "A143": "none",
		},
		Mutable: true,
	},
	{
		Name: "housing", Label: "Housing", Kind: Categorical,
		Codes: []string{"A151", "A152", "A153"},
		Labels: map[string]string{
			"A151": "renting", "A152": "owns home", "A153": "living rent-free",
		},
		Mutable: true,
	},
	{Name: "existing_credits", Label: "Existing credits at this bank", Kind: Numeric, Mutable: true},
	{
		Name: "job", Label: "Job", Kind: Categorical,
		Codes: []string{"A171", "A172", "A173", "A174"},
		Labels: map[string]string{
			"A171": "unemployed / unskilled non-resident", "A172": "unskilled resident",
			"A173": "skilled employee", "A174": "management / highly qualified",
		},
		Mutable: true,
	},
	{Name: "dependents", Label: "People financially dependent", Kind: Numeric, Mutable: false},
	{
		Name: "telephone", Label: "Telephone registered", Kind: Categorical,
		Codes: []string{"A191", "A192"},
		Labels: map[string]string{
			"A191": "none", "A192": "yes",
		},
		Mutable: true,
	},
	{
		Name: "foreign_worker", Label: "Foreign worker", Kind: Categorical,
		Codes: []string{"A201", "A202"},
		Labels: map[string]string{
			"A201": "yes", "A202": "no",
		},
		Mutable: false,
	},
}

// FeatureIndex returns the position of a feature by name, or -1.
func FeatureIndex(name string) int {
	for i, f := range Features {
		if f.Name == name {
			return i
		}
	}
	return -1
}

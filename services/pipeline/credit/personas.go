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

import "fmt"

// Persona is a scripted loan applicant reviewed by every participant.
// Raw holds the 20 feature values in dataset attribute-code form so the
// same encoder used for training encodes personas.
type Persona struct {
	ID          string
	Name        string
	Summary     string
	Raw         []string
}

// Personas are the four scripted applicants, chosen so the model
// approves two and rejects two with clearly different driving features.
var Personas = []Persona{
	{
		ID:      "persona-01",
		Name:    "Ms. Keller",
		Summary: "Long-employed homeowner asking for a small furniture loan.",
		Raw: []string{
			"A13",  // checking: 200 DM or more
			"12",   // duration
			"A32",  // history: existing paid duly
			"A42",  // purpose: furniture
			"1500", // amount
			"A63",  // savings: 500-1000 DM
			"A75",  // employed 7+ years
			"2",    // installment rate
			"A92",  // personal status
			"A101", // no other debtors
			"4",    // residence since
			"A121", // real estate
			"41",   // age
			"A143", // no other plans
			"A152", // owns home
			"1",    // existing credits
			"A173", // skilled employee
			"1",    // dependents
			"A192", // telephone yes
			"A201", // foreign worker yes
		},
	},
	{
		ID:      "persona-02",
		Name:    "Mr. Brandt",
		Summary: "Young renter with no savings seeking a large used-car loan.",
		Raw: []string{
			"A11",  // checking below 0 DM
			"48",   // duration
			"A33",  // delays in the past
			"A41",  // used car
			"9500", // amount
			"A61",  // savings below 100 DM
			"A72",  // employed under 1 year
			"4",    // installment rate
			"A93",  // personal status
			"A101", // no other debtors
			"1",    // residence since
			"A124", // no property
			"24",   // age
			"A141", // other plan at bank
			"A151", // renting
			"2",    // existing credits
			"A172", // unskilled resident
			"1",    // dependents
			"A191", // no telephone
			"A201", // foreign worker yes
		},
	},
	{
		ID:      "persona-03",
		Name:    "Mr. Okafor",
		Summary: "Mid-career manager consolidating debt with a guarantor.",
		Raw: []string{
			"A12",  // checking 0-200 DM
			"24",   // duration
			"A34",  // critical account
			"A49",  // business
			"3200", // amount
			"A62",  // savings 100-500 DM
			"A74",  // employed 4-7 years
			"3",    // installment rate
			"A93",  // personal status
			"A103", // guarantor
			"3",    // residence since
			"A122", // savings agreement
			"35",   // age
			"A143", // no other plans
			"A152", // owns home
			"2",    // existing credits
			"A174", // management
			"2",    // dependents
			"A192", // telephone yes
			"A201", // foreign worker yes
		},
	},
	{
		ID:      "persona-04",
		Name:    "Ms. Vogel",
		Summary: "Unemployed applicant requesting a long education loan.",
		Raw: []string{
			"A11",  // checking below 0 DM
			"60",   // duration
			"A30",  // no credits taken
			"A46",  // education
			"7800", // amount
			"A65",  // unknown savings
			"A71",  // unemployed
			"4",    // installment rate
			"A92",  // personal status
			"A101", // no other debtors
			"2",    // residence since
			"A124", // no property
			"29",   // age
			"A142", // other plan at stores
			"A151", // renting
			"1",    // existing credits
			"A171", // unemployed / unskilled non-resident
			"1",    // dependents
			"A191", // no telephone
			"A201", // foreign worker yes
		},
	},
}

// PersonaByID looks up a scripted persona.
func PersonaByID(id string) (Persona, bool) {
	for _, p := range Personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// EncodePersona encodes a persona's raw values into a model-matrix row.
func EncodePersona(p Persona) ([]float64, error) {
	if len(p.Raw) != len(Features) {
		return nil, fmt.Errorf("persona %s: expected %d values, got %d", p.ID, len(Features), len(p.Raw))
	}
	row := make([]float64, len(Features))
	for i, spec := range Features {
		v, err := spec.Encode(p.Raw[i])
		if err != nil {
			return nil, fmt.Errorf("persona %s: %w", p.ID, err)
		}
		row[i] = v
	}
	return row, nil
}

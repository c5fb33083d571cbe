// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explain

import (
	"context"
	"fmt"
	"strings"
)

// TemplateClient renders the narrative from a fixed template instead of
// calling an LLM. It is the default backend: study mode pins it so every
// participant reads identical prose for the same persona.
type TemplateClient struct{}

func NewTemplateClient() *TemplateClient { return &TemplateClient{} }

func (t *TemplateClient) Name() string { return "template" }

// Generate parses the structured prompt built by narrativePrompt and
// assembles deterministic prose from it.
func (t *TemplateClient) Generate(_ context.Context, prompt string, _ GenerationParams) (string, error) {
	decision, probability := parseDecisionLine(prompt)
	factors := parseFactorLines(prompt)

	var sb strings.Builder
	if decision == "APPROVE" {
		fmt.Fprintf(&sb, "Good news: the application was approved. The model puts the risk of repayment problems at %s. ", probability)
	} else {
		fmt.Fprintf(&sb, "Unfortunately the application was declined. The model puts the risk of repayment problems at %s. ", probability)
	}

	var reject, approve []string
	for _, f := range factors {
		if f.towardReject {
			reject = append(reject, fmt.Sprintf("%s (%s)", strings.ToLower(f.label), f.value))
		} else {
			approve = append(approve, fmt.Sprintf("%s (%s)", strings.ToLower(f.label), f.value))
		}
	}
	if len(reject) > 0 {
		fmt.Fprintf(&sb, "The main concerns were %s. ", joinAnd(reject))
	}
	if len(approve) > 0 {
		fmt.Fprintf(&sb, "Working in the applicant's favor were %s.", joinAnd(approve))
	}
	return strings.TrimSpace(sb.String()), nil
}

type promptFactor struct {
	label        string
	value        string
	towardReject bool
}

func parseDecisionLine(prompt string) (decision, probability string) {
	decision, probability = "REJECT", "an unknown level"
	for _, line := range strings.Split(prompt, "\n") {
		if !strings.HasPrefix(line, "Decision: ") {
			continue
		}
		rest := strings.TrimPrefix(line, "Decision: ")
		if i := strings.Index(rest, " ("); i > 0 {
			decision = rest[:i]
			probability = strings.TrimSuffix(rest[i+len(" (rejection probability "):], ")")
		}
		return
	}
	return
}

func parseFactorLines(prompt string) []promptFactor {
	var factors []promptFactor
	for _, line := range strings.Split(prompt, "\n") {
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		body := strings.TrimPrefix(line, "- ")
		open := strings.Index(body, " (")
		close := strings.LastIndex(body, "): ")
		if open < 0 || close < open {
			continue
		}
		factors = append(factors, promptFactor{
			label:        body[:open],
			value:        body[open+2 : close],
			towardReject: strings.Contains(body[close:], "rejection"),
		})
	}
	return factors
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

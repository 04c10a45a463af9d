// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"encoding/json"
	"sort"
	"strings"
)

// =============================================================================
// TOOL NAMES
// =============================================================================

// Canonical tool names as they appear on the wire.
const (
	NameMortgagePayment = "mortgage_payment"
	NameAffordability   = "affordability"
)

// CanonicalName maps planner and endpoint spellings onto wire names
// ("Mortgage-Payment" -> "mortgage_payment").
func CanonicalName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

// =============================================================================
// RESULT SET
// =============================================================================

// ResultSet is the tagged union of tool outputs attached to one assistant
// message. On the wire it is an object keyed by tool name; a failed tool
// contributes {"error": "..."} under its name instead of a payload.
type ResultSet struct {
	Mortgage      *MortgagePaymentResult
	Affordability *AffordabilityResult
	Errors        map[string]string
}

// NewResultSet returns an empty set.
func NewResultSet() *ResultSet {
	return &ResultSet{Errors: make(map[string]string)}
}

// Run executes the named tool and records either its payload or its error.
// Unknown names record an error entry; nothing propagates, matching how
// results travel to the client.
func (rs *ResultSet) Run(name string, params Params) {
	if rs.Errors == nil {
		rs.Errors = make(map[string]string)
	}
	canonical := CanonicalName(name)
	switch canonical {
	case NameMortgagePayment:
		res, err := MortgagePayment(params)
		if err != nil {
			rs.Errors[canonical] = err.Error()
			return
		}
		rs.Mortgage = &res
	case NameAffordability:
		res, err := Affordability(params)
		if err != nil {
			rs.Errors[canonical] = err.Error()
			return
		}
		rs.Affordability = &res
	default:
		rs.Errors[canonical] = "unknown tool: " + name
	}
}

// IsEmpty reports whether the set carries no payloads and no errors.
func (rs *ResultSet) IsEmpty() bool {
	return rs == nil || (rs.Mortgage == nil && rs.Affordability == nil && len(rs.Errors) == 0)
}

// HasPayload reports whether at least one tool produced a real result.
func (rs *ResultSet) HasPayload() bool {
	return rs != nil && (rs.Mortgage != nil || rs.Affordability != nil)
}

// Names returns the tool names present in the set, sorted for stable display.
func (rs *ResultSet) Names() []string {
	if rs == nil {
		return nil
	}
	var names []string
	if rs.Mortgage != nil {
		names = append(names, NameMortgagePayment)
	}
	if rs.Affordability != nil {
		names = append(names, NameAffordability)
	}
	for name := range rs.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge folds other into the receiver: payloads from other replace existing
// ones tool by tool, errors replace matching errors, and a fresh payload
// clears a stale error for the same tool. Editing calculator assumptions
// reruns a tool and merges the recomputed values through here.
func (rs *ResultSet) Merge(other *ResultSet) {
	if other == nil {
		return
	}
	if rs.Errors == nil {
		rs.Errors = make(map[string]string)
	}
	if other.Mortgage != nil {
		rs.Mortgage = other.Mortgage
		delete(rs.Errors, NameMortgagePayment)
	}
	if other.Affordability != nil {
		rs.Affordability = other.Affordability
		delete(rs.Errors, NameAffordability)
	}
	for name, msg := range other.Errors {
		rs.Errors[name] = msg
	}
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

type toolError struct {
	Error string `json:"error"`
}

// MarshalJSON writes the keyed-object wire form.
func (rs ResultSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3)
	if rs.Mortgage != nil {
		out[NameMortgagePayment] = rs.Mortgage
	}
	if rs.Affordability != nil {
		out[NameAffordability] = rs.Affordability
	}
	for name, msg := range rs.Errors {
		out[name] = toolError{Error: msg}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the keyed-object wire form. Unknown tool names and
// malformed payloads are dropped silently; a partial decode never fails the
// whole message.
func (rs *ResultSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rs.Mortgage = nil
	rs.Affordability = nil
	rs.Errors = make(map[string]string)

	for name, payload := range raw {
		canonical := CanonicalName(name)

		var probe struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(payload, &probe); err == nil && probe.Error != nil {
			rs.Errors[canonical] = *probe.Error
			continue
		}

		switch canonical {
		case NameMortgagePayment:
			var res MortgagePaymentResult
			if err := json.Unmarshal(payload, &res); err == nil {
				rs.Mortgage = &res
			}
		case NameAffordability:
			var res AffordabilityResult
			if err := json.Unmarshal(payload, &res); err == nil {
				rs.Affordability = &res
			}
		}
	}
	return nil
}

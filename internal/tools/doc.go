// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools implements the finance calculators the advisor can invoke
// and the result set attached to assistant messages.
//
// # Calculators
//
//   - MortgagePayment: principal-and-interest amortization plus taxes,
//     insurance, HOA, and PMI (full PITI)
//   - Affordability: maximum purchase price under front/back DTI caps,
//     solved by binary search
//
// # Results
//
// ResultSet is a tagged union keyed by tool name on the wire:
//
//	{"mortgage_payment": {...}, "affordability": {"error": "..."}}
//
// A failed tool contributes an error entry instead of a payload. Sets merge
// when the user edits calculator assumptions and a tool reruns.
package tools

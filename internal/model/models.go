// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes an advisor model the backend can target. The catalog
// backs the model toggle and status display; the backend treats unknown ids
// as pass-through.
type ModelInfo struct {
	// ID is the model identifier sent in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Provider identifies who serves the model (OpenAI or a local
	// OpenAI-compatible server)
	Provider string `json:"provider"`

	// Description is a brief note on when to pick this model
	Description string `json:"description"`
}

// =============================================================================
// MODEL CATALOG
// =============================================================================

// Models is the catalog of known advisor models, keyed by short name.
var Models = map[string]ModelInfo{
	"gpt-4o-mini": {
		ID:          "gpt-4o-mini",
		Name:        "GPT-4o Mini",
		Provider:    "OpenAI",
		Description: "Fast, inexpensive default for everyday questions",
	},
	"gpt-4o": {
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		Provider:    "OpenAI",
		Description: "Stronger reasoning for multi-step planning",
	},
	"llama3.1": {
		ID:          "llama3.1",
		Name:        "Llama 3.1",
		Provider:    "Local",
		Description: "Runs on a local OpenAI-compatible server",
	},
	"mistral": {
		ID:          "mistral",
		Name:        "Mistral",
		Provider:    "Local",
		Description: "Compact local model, quick answers",
	},
	"qwen2.5": {
		ID:          "qwen2.5",
		Name:        "Qwen 2.5",
		Provider:    "Local",
		Description: "Good with numbers for a local model",
	},
}

// =============================================================================
// LOOKUP
// =============================================================================

// GetModelInfo looks up a model by short name or id. Falls back to a partial
// name match so "/model 4o" resolves.
func GetModelInfo(nameOrID string) (ModelInfo, bool) {
	if info, ok := Models[nameOrID]; ok {
		return info, true
	}
	for _, info := range Models {
		if info.ID == nameOrID {
			return info, true
		}
	}
	needle := strings.ToLower(nameOrID)
	if needle == "" {
		return ModelInfo{}, false
	}
	for _, name := range ModelShortNames() {
		info := Models[name]
		if strings.Contains(strings.ToLower(info.Name), needle) ||
			strings.Contains(strings.ToLower(info.ID), needle) {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// ModelShortNames returns all short names in sorted order.
func ModelShortNames() []string {
	names := make([]string, 0, len(Models))
	for name := range Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextModel returns the model after current in the sorted catalog, wrapping
// at the end. An empty or unknown current lands on the first entry; the
// toggle-model command cycles through here.
func NextModel(current string) string {
	names := ModelShortNames()
	if len(names) == 0 {
		return current
	}
	for i, name := range names {
		if name == current || Models[name].ID == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pennyworth/penny-tui/internal/tools"
)

// =============================================================================
// PROMPTS
// =============================================================================

// SystemPrompt frames every answer. All data is local; the model must
// never pretend otherwise.
const SystemPrompt = "You are a privacy-first financial coach. Be supportive, non-judgmental, and clear. " +
	"Explain concepts simply. Use exact dollars and percentages when helpful. " +
	"Never claim to access external data; all data is provided by the user locally. " +
	"Remind users their data never leaves their system when appropriate."

// ComposeFallback is the answer of last resort when composition yields
// nothing. Callers treat its presence as a signal to retry without tools.
const ComposeFallback = "Unable to compose an answer."

// toolParamSpec lists the parameters each planner-visible tool accepts.
// The planner prompt embeds this so the model emits runnable calls.
var toolParamSpec = map[string][]string{
	tools.NameMortgagePayment: {
		"principal", "house_price", "down_payment", "down_payment_percent",
		"annual_rate", "term_years", "monthly_taxes", "property_tax_rate_annual",
		"monthly_insurance", "insurance_rate_annual", "monthly_hoa",
		"monthly_pmi", "pmi_rate_annual", "ltv_pmi_threshold",
	},
	tools.NameAffordability: {
		"monthly_income", "monthly_debt_payments", "annual_rate", "term_years",
		"down_payment", "down_payment_percent", "property_tax_rate_annual",
		"insurance_rate_annual", "monthly_hoa", "pmi_rate_annual", "ltv_pmi_threshold",
		"dti_front", "dti_back",
	},
}

func plannerSystem() string {
	spec, _ := json.Marshal(toolParamSpec)
	return "You are a planner for a finance assistant. " +
		"Decide which tools to call to answer the user's question precisely. " +
		"Return ONLY a JSON object with keys: intent (string), tools (array of {name, params}), missing_inputs (array of strings). " +
		"Supported tools and params: " + string(spec) + ". " +
		"If inputs are missing, list them in missing_inputs and keep tools empty."
}

func composePrompt(analytics any, question string, results *tools.ResultSet) string {
	return "Answer the user's question using ONLY the provided analytics and tool_results. " +
		"Numbers must come from tool_results or analytics; do not invent. " +
		"If appropriate, show assumptions clearly and suggest 1-2 scenarios.\n\n" +
		"Analytics JSON:\n" + marshalAnalytics(analytics) + "\n\n" +
		"Tool results JSON:\n" + marshalResults(results) + "\n\n" +
		"User question:\n" + question
}

func marshalAnalytics(analytics any) string {
	if analytics == nil {
		return "{}"
	}
	b, err := json.Marshal(analytics)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func marshalResults(results *tools.ResultSet) string {
	if results == nil {
		return "{}"
	}
	b, err := json.Marshal(results)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// MissingInputsFallback is the canned reply when the planner flagged
// missing inputs and the model could not phrase the request itself.
func MissingInputsFallback(missing []string) string {
	return "Please provide: " + strings.Join(missing, ", ")
}

// =============================================================================
// PLANNING
// =============================================================================

// ToolCall is one planned invocation of a local calculator.
type ToolCall struct {
	Name   string       `json:"name"`
	Params tools.Params `json:"params"`
}

// Plan is the planner's decision for a question: which tools to run with
// what parameters, or which inputs the user still has to supply.
type Plan struct {
	Intent        string     `json:"intent"`
	Tools         []ToolCall `json:"tools"`
	MissingInputs []string   `json:"missing_inputs"`
}

// ExtractJSON digs a JSON object out of a model reply. Code fences are
// stripped first; if the remainder is not valid JSON the substring from
// the first "{" to the last "}" is tried. Returns nil when nothing parses.
func ExtractJSON(text string) []byte {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	if strings.HasPrefix(t, "```") {
		var kept []string
		for _, line := range strings.Split(t, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				continue
			}
			kept = append(kept, line)
		}
		t = strings.Join(kept, "\n")
	}

	var probe json.RawMessage
	if err := json.Unmarshal([]byte(t), &probe); err == nil {
		return []byte(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start == -1 || end == -1 || end <= start {
		return nil
	}
	blob := t[start : end+1]
	if err := json.Unmarshal([]byte(blob), &probe); err != nil {
		return nil
	}
	return []byte(blob)
}

// Plan asks the model which tools would answer the question. A reply that
// cannot be parsed degrades to an empty plan; orchestration then composes
// from analytics alone.
func (c *Client) Plan(ctx context.Context, analytics any, question, model string) Plan {
	messages := []ChatMessage{
		{Role: RoleSystem, Content: plannerSystem()},
		{Role: RoleUser, Content: question},
		{Role: RoleUser, Content: "Available analytics summary JSON:"},
		{Role: RoleUser, Content: marshalAnalytics(analytics)},
	}
	raw, err := c.Generate(ctx, messages, model)
	if err != nil {
		return Plan{}
	}
	blob := ExtractJSON(raw)
	if blob == nil {
		return Plan{}
	}
	var plan Plan
	if err := json.Unmarshal(blob, &plan); err != nil {
		return Plan{}
	}
	return plan
}

// RunPlannedTools executes the plan's calls against the local calculators.
// Names outside the supported set are skipped; a tool that rejects its
// parameters contributes an error entry instead of a payload.
func RunPlannedTools(plan Plan) *tools.ResultSet {
	results := tools.NewResultSet()
	for _, call := range plan.Tools {
		name := tools.CanonicalName(call.Name)
		if _, ok := toolParamSpec[name]; !ok {
			continue
		}
		params := call.Params
		if params == nil {
			params = tools.Params{}
		}
		results.Run(name, params)
	}
	return results
}

// =============================================================================
// ASK FLOWS
// =============================================================================

// Ask answers a question from the analytics summary alone, without
// planning or tools.
func (c *Client) Ask(ctx context.Context, analytics any, question, model string) (string, error) {
	messages := []ChatMessage{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: "Here is a JSON summary of my finances."},
		{Role: RoleUser, Content: marshalAnalytics(analytics)},
		{Role: RoleUser, Content: question},
	}
	return c.Generate(ctx, messages, model)
}

// Compose turns analytics plus tool results into a final answer.
func (c *Client) Compose(ctx context.Context, analytics any, question string, results *tools.ResultSet, model string) (string, error) {
	messages := []ChatMessage{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: composePrompt(analytics, question, results)},
	}
	return c.Generate(ctx, messages, model)
}

// StreamCompose composes a final answer and returns it pre-sliced into
// token chunks for SSE delivery.
func (c *Client) StreamCompose(ctx context.Context, analytics any, question string, results *tools.ResultSet, model string) ([]string, error) {
	content, err := c.Compose(ctx, analytics, question, results, model)
	if err != nil {
		return nil, err
	}
	return ChunkContent(content), nil
}

// AskOrchestrated runs the full plan, execute, compose loop for one
// question. It returns the answer together with the tool results and
// missing inputs the planner produced, so callers can attach both to the
// reply. Content-level failures degrade to canned answers; only a missing
// API key surfaces as an error.
func (c *Client) AskOrchestrated(ctx context.Context, analytics any, question, model string) (string, *tools.ResultSet, []string, error) {
	if !c.HasAPIKey() {
		return "", nil, nil, ErrNoAPIKey
	}

	plan := c.Plan(ctx, analytics, question, model)
	results := RunPlannedTools(plan)
	missing := plan.MissingInputs

	// No runnable tools but known gaps: ask the user to fill them in
	// rather than composing an answer with nothing behind it.
	if len(missing) > 0 && results.IsEmpty() {
		messages := []ChatMessage{
			{Role: RoleSystem, Content: SystemPrompt},
			{Role: RoleUser, Content: "Ask the user for the following missing inputs and explain why they matter: " + strings.Join(missing, ", ")},
		}
		content, err := c.Generate(ctx, messages, model)
		if err != nil || content == "" {
			content = MissingInputsFallback(missing)
		}
		return content, results, missing, nil
	}

	content, err := c.Compose(ctx, analytics, question, results, model)
	if err != nil || content == "" {
		content = ComposeFallback
	}
	return content, results, missing, nil
}

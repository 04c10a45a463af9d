// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/tools"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// TOOL RESULT CARD
// =============================================================================

// ToolResultCard renders the calculator output attached to an assistant
// message: one card per tool, error lines for failed tools, and a banner
// when the backend reported missing inputs. Collapsed cards show the
// headline figure; expanded cards show the full breakdown plus the raw
// JSON payload.
type ToolResultCard struct {
	results  *tools.ResultSet
	missing  []string
	expanded bool
	width    int
	theme    *styles.Theme
}

// NewToolResultCard creates an empty card.
func NewToolResultCard(theme *styles.Theme) *ToolResultCard {
	return &ToolResultCard{
		theme: theme,
		width: 80,
	}
}

// SetResults sets the result set and missing-input names to display.
func (c *ToolResultCard) SetResults(results *tools.ResultSet, missing []string) {
	c.results = results
	c.missing = missing
	c.expanded = false
}

// SetWidth sets the display width.
func (c *ToolResultCard) SetWidth(width int) {
	c.width = width
}

// Toggle expands or collapses the card.
func (c *ToolResultCard) Toggle() {
	c.expanded = !c.expanded
}

// IsExpanded returns whether the card is expanded.
func (c *ToolResultCard) IsExpanded() bool {
	return c.expanded
}

// SetExpanded sets the expanded state.
func (c *ToolResultCard) SetExpanded(expanded bool) {
	c.expanded = expanded
}

// HasContent reports whether there is anything to render.
func (c *ToolResultCard) HasContent() bool {
	return !c.results.IsEmpty() || len(c.missing) > 0
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the banner, cards, and error lines in a stable order.
func (c *ToolResultCard) View() string {
	if !c.HasContent() {
		return ""
	}

	var sections []string

	if len(c.missing) > 0 {
		sections = append(sections, c.renderMissingBanner())
	}

	if c.results != nil {
		if c.results.Mortgage != nil {
			sections = append(sections, c.renderMortgage(c.results.Mortgage))
		}
		if c.results.Affordability != nil {
			sections = append(sections, c.renderAffordability(c.results.Affordability))
		}
		if len(c.results.Errors) > 0 {
			sections = append(sections, c.renderErrors(c.results.Errors))
		}
	}

	return strings.Join(sections, "\n")
}

// renderMissingBanner renders the missing-inputs notice.
func (c *ToolResultCard) renderMissingBanner() string {
	iconStyle := lipgloss.NewStyle().
		Foreground(styles.WarningHighContrast).
		Bold(true)

	line := iconStyle.Render(styles.StatusIndicators.Warning) +
		" Missing inputs: " + strings.Join(c.missing, ", ")

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	hint := hintStyle.Render("Include them in your message to run the calculators.")

	return c.theme.MissingBanner.Render(line + "\n" + hint)
}

// renderMortgage renders the mortgage payment card.
func (c *ToolResultCard) renderMortgage(res *tools.MortgagePaymentResult) string {
	headline := util.FormatMoney(res.MonthlyPITI) + "/mo PITI"

	if !c.expanded {
		return c.renderCollapsedCard("Mortgage payment", headline)
	}

	var rows []string
	if res.HousePrice != nil {
		rows = append(rows, c.renderRow("House price", util.FormatMoneyWhole(*res.HousePrice)))
	}
	if res.DownPayment != nil {
		rows = append(rows, c.renderRow("Down payment", util.FormatMoneyWhole(*res.DownPayment)))
	}
	rows = append(rows,
		c.renderRow("Loan amount", util.FormatMoneyWhole(res.Principal)),
		c.renderRow("Rate", util.FormatPercent(res.AnnualRate)),
		c.renderRow("Term", formatTermMonths(res.TermMonths)),
		c.renderRow("Monthly P&I", util.FormatMoney(res.MonthlyPI)),
	)
	if res.MonthlyTaxes > 0 {
		rows = append(rows, c.renderRow("Taxes", util.FormatMoney(res.MonthlyTaxes)))
	}
	if res.MonthlyInsurance > 0 {
		rows = append(rows, c.renderRow("Insurance", util.FormatMoney(res.MonthlyInsurance)))
	}
	if res.MonthlyHOA > 0 {
		rows = append(rows, c.renderRow("HOA", util.FormatMoney(res.MonthlyHOA)))
	}
	if res.MonthlyPMI > 0 {
		rows = append(rows, c.renderRow("PMI", util.FormatMoney(res.MonthlyPMI)))
	}
	rows = append(rows, c.renderRow("Total PITI", util.FormatMoney(res.MonthlyPITI)))

	return c.renderExpandedCard("Mortgage payment", rows, tools.NameMortgagePayment, res)
}

// renderAffordability renders the affordability card.
func (c *ToolResultCard) renderAffordability(res *tools.AffordabilityResult) string {
	headline := "up to " + util.FormatMoneyWhole(res.MaxPrice)

	if !c.expanded {
		return c.renderCollapsedCard("Affordability", headline)
	}

	rows := []string{
		c.renderRow("Max price", util.FormatMoneyWhole(res.MaxPrice)),
		c.renderRow("Binding limit", res.BindingConstraint),
		c.renderRow("PITI at max", util.FormatMoney(res.PITIAtMax)),
	}

	// Breakdown keys sorted for stable display
	keys := make([]string, 0, len(res.Breakdown))
	for k := range res.Breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, c.renderRow(breakdownLabel(k), util.FormatMoney(res.Breakdown[k])))
	}

	return c.renderExpandedCard("Affordability", rows, tools.NameAffordability, res)
}

// renderErrors renders one line per failed tool, sorted by name.
func (c *ToolResultCard) renderErrors(errs map[string]string) string {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	iconStyle := lipgloss.NewStyle().
		Foreground(styles.ErrorHighContrast).
		Bold(true)
	nameStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Bold(true)
	msgStyle := lipgloss.NewStyle().
		Foreground(styles.ToolErrorFg)

	var lines []string
	for _, name := range names {
		lines = append(lines,
			iconStyle.Render(styles.StatusIndicators.Error)+" "+
				nameStyle.Render(toolDisplayName(name))+"  "+
				msgStyle.Render(errs[name]))
	}

	return c.theme.ToolCardError.Render(strings.Join(lines, "\n"))
}

// renderCollapsedCard renders the one-line summary form.
func (c *ToolResultCard) renderCollapsedCard(title, headline string) string {
	iconStyle := lipgloss.NewStyle().
		Foreground(styles.SuccessHighContrast).
		Bold(true)

	expandStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	line := iconStyle.Render(styles.StatusIndicators.Success) + " " +
		c.theme.ToolTitle.Render(title) + "  " +
		c.theme.ToolValue.Render(headline) +
		expandStyle.Render(" [+]")

	return c.theme.ToolCard.Render(line)
}

// renderExpandedCard renders the full breakdown plus the raw JSON payload.
func (c *ToolResultCard) renderExpandedCard(title string, rows []string, wireName string, payload any) string {
	var builder strings.Builder

	iconStyle := lipgloss.NewStyle().
		Foreground(styles.SuccessHighContrast).
		Bold(true)
	collapseStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	builder.WriteString(iconStyle.Render(styles.StatusIndicators.Success))
	builder.WriteString(" ")
	builder.WriteString(c.theme.ToolTitle.Render(title))
	builder.WriteString(collapseStyle.Render(" [-]"))
	builder.WriteString("\n")

	sepWidth := c.width - 8
	if sepWidth < 20 {
		sepWidth = 40
	}
	sepStyle := lipgloss.NewStyle().Foreground(styles.Overlay)
	builder.WriteString(sepStyle.Render(strings.Repeat("-", sepWidth)))
	builder.WriteString("\n")

	builder.WriteString(strings.Join(rows, "\n"))

	// Raw payload, highlighted, for copying into a spreadsheet or report
	if data, err := json.MarshalIndent(map[string]any{wireName: payload}, "", "  "); err == nil {
		builder.WriteString("\n")
		builder.WriteString(sepStyle.Render(strings.Repeat("-", sepWidth)))
		builder.WriteString("\n")
		builder.WriteString(highlightJSON(string(data)))
	}

	return c.theme.ToolCard.Render(builder.String())
}

// renderRow renders a label/value line with an aligned label column.
func (c *ToolResultCard) renderRow(label, value string) string {
	labelStyle := c.theme.ToolLabel.Width(16)
	return labelStyle.Render(label) + "  " + c.theme.ToolValue.Render(value)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTermMonths renders a loan term as months with years when whole.
func formatTermMonths(months int) string {
	if months > 0 && months%12 == 0 {
		return util.FormatCount(months) + " months (" + util.FormatCount(months/12) + " yr)"
	}
	return util.FormatCount(months) + " months"
}

// toolDisplayName maps wire names to readable titles.
func toolDisplayName(name string) string {
	switch name {
	case tools.NameMortgagePayment:
		return "Mortgage payment"
	case tools.NameAffordability:
		return "Affordability"
	default:
		return name
	}
}

// breakdownLabel prettifies a snake_case breakdown key.
func breakdownLabel(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// highlightJSON applies JSON syntax highlighting using the chroma library.
// Returns the input unchanged if highlighting fails.
func highlightJSON(code string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}

	return buf.String()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/ledger"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfigCommand shows or edits configuration. With no subcommand the
// full (redacted) configuration is printed.
func HandleConfigCommand(args Args) error {
	sub := args.Subcommand
	if sub == "" {
		sub = "show"
	}

	switch sub {
	case "show":
		return configShow(args)
	case "get":
		return configGet(args)
	case "set":
		return configSet(args)
	case "keys":
		return configKeys(args)
	case "path":
		path, err := config.PathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return NewValidationError(
			"subcommand", sub,
			"expected show, get, set, keys, or path",
			"penny config show",
		)
	}
}

func configShow(args Args) error {
	cfg := config.Global()

	if args.JSON {
		safe := cfg.Clone()
		if safe.LLM.APIKey != "" {
			safe.LLM.APIKey = "[REDACTED]"
		}
		NewJSONResponse("config", safe).Print()
		return nil
	}

	fmt.Println(TitleStyle.Render("penny config"))
	fmt.Println(cfg.String())
	if path, err := config.PathTOML(); err == nil {
		fmt.Println(DimStyle.Render("File: " + path))
	}
	return nil
}

func configGet(args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "penny config get llm.model")
	}
	if strings.HasPrefix(args.ConfigKey, profileKeyPrefix) {
		return profileGet(args)
	}

	cfg := config.Global()
	value, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return NewNotFoundError("config key", args.ConfigKey)
	}

	if strings.Contains(args.ConfigKey, "api_key") {
		if s, ok := value.(string); ok {
			value = maskSecret(s)
		}
	}

	if args.JSON {
		NewJSONResponse("config", map[string]interface{}{args.ConfigKey: value}).Print()
		return nil
	}
	fmt.Println(value)
	return nil
}

func configSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return ErrMissingArgument("key and value", "penny config set llm.model gpt-4o-mini")
	}
	if strings.HasPrefix(args.ConfigKey, profileKeyPrefix) {
		return profileSet(args)
	}

	// Re-load from disk so a stale global never clobbers concurrent edits.
	cfg, err := config.Load()
	if cfg == nil {
		return WrapError(err, "load config")
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return NewValidationError("key", args.ConfigKey, err.Error(), "penny config keys")
	}
	if err := config.EnsureDir(); err != nil {
		return WrapError(err, "prepare config directory")
	}
	if err := config.Save(cfg); err != nil {
		return WrapError(err, "save config")
	}
	config.SetGlobal(cfg)

	display := args.ConfigVal
	if strings.Contains(args.ConfigKey, "api_key") {
		display = maskSecret(args.ConfigVal)
	}

	if args.JSON {
		NewJSONResponse("config", map[string]interface{}{args.ConfigKey: display}).Print()
		return nil
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Set %s = %s", args.ConfigKey, display)))
	return nil
}

func configKeys(args Args) error {
	keys := config.GetAllKeys()
	keys = append(keys,
		"profile.liquid_savings",
		"profile.monthly_debt_payments",
		"profile.budget.<category>",
	)

	if args.JSON {
		NewJSONResponse("config", keys).Print()
		return nil
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

// =============================================================================
// FINANCIAL PROFILE KEYS
// =============================================================================

// Profile keys live in the ledger database alongside the transactions they
// contextualize, not in the TOML config. They feed the spending snapshot:
// liquid savings drives the emergency-fund months, monthly debt payments the
// DTI ratio, and per-category budgets the variance report.

const profileKeyPrefix = "profile."

func validProfileKey(key string) bool {
	switch key {
	case "profile.liquid_savings", "profile.monthly_debt_payments", "profile.budgets":
		return true
	}
	return strings.HasPrefix(key, "profile.budget.") &&
		len(key) > len("profile.budget.")
}

func profileGet(args Args) error {
	key := args.ConfigKey
	if !validProfileKey(key) {
		return NewNotFoundError("profile key", key)
	}

	// A missing ledger just means nothing has been recorded yet.
	var value interface{}
	if dbPath, err := config.LedgerDBPath(); err == nil {
		if _, statErr := os.Stat(dbPath); statErr == nil {
			l, err := openLedger(config.Global())
			if err != nil {
				return WrapError(err, "open ledger")
			}
			defer l.Close()

			p, err := l.Profile()
			if err != nil {
				return WrapError(err, "load profile")
			}
			value = profileValue(p, key)
		}
	}

	if args.JSON {
		NewJSONResponse("config", map[string]interface{}{key: value}).Print()
		return nil
	}
	if value == nil {
		fmt.Println(DimStyle.Render("(not set)"))
		return nil
	}
	fmt.Println(value)
	return nil
}

func profileValue(p ledger.Profile, key string) interface{} {
	switch {
	case key == "profile.liquid_savings":
		if p.LiquidSavings != nil {
			return *p.LiquidSavings
		}
	case key == "profile.monthly_debt_payments":
		if p.MonthlyDebtPayments != nil {
			return *p.MonthlyDebtPayments
		}
	case key == "profile.budgets":
		if len(p.Budgets) > 0 {
			return p.Budgets
		}
	case strings.HasPrefix(key, "profile.budget."):
		category := strings.TrimPrefix(key, "profile.budget.")
		if target, ok := p.Budgets[category]; ok {
			return target
		}
	}
	return nil
}

func profileSet(args Args) error {
	key := args.ConfigKey
	if !validProfileKey(key) || key == "profile.budgets" {
		return NewNotFoundError("profile key", key)
	}

	v, err := strconv.ParseFloat(args.ConfigVal, 64)
	if err != nil {
		return NewValidationError(
			"value", args.ConfigVal,
			"expected a number",
			"penny config set profile.liquid_savings 12000",
		)
	}

	l, err := openLedger(config.Global())
	if err != nil {
		return WrapError(err, "open ledger")
	}
	defer l.Close()

	switch {
	case key == "profile.liquid_savings":
		err = l.SetLiquidSavings(v)
	case key == "profile.monthly_debt_payments":
		err = l.SetMonthlyDebtPayments(v)
	default:
		category := strings.TrimPrefix(key, "profile.budget.")
		err = l.SetBudget(category, v)
	}
	if err != nil {
		return WrapError(err, "save profile")
	}

	if args.JSON {
		NewJSONResponse("config", map[string]interface{}{key: v}).Print()
		return nil
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Set %s = %s", key, args.ConfigVal)))
	return nil
}

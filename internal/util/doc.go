// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the penny application.
//
// This package contains common helper functions used throughout the
// application for string manipulation, money formatting, and file
// operations.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - Ellipsize: single-rune ellipsis truncation for titles
//
// Money Formatting:
//   - FormatMoney: locale-aware dollar formatting ($1,234.56)
//   - FormatPercent: ratio to percentage string
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long strings safely for display
//	display := util.TruncateRunes(longText, 50)
//
//	// Format dollar amounts for chat and reports
//	s := util.FormatMoney(1234.56)
//
//	// Write state files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0644)
package util

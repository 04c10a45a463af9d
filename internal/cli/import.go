// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// IMPORT COMMAND
// =============================================================================

// HandleImportCommand loads a bank statement CSV into the local ledger. The
// statement comes from the file argument or from piped stdin. Duplicate
// transactions across overlapping statements are detected and skipped.
func HandleImportCommand(args Args) error {
	cfg := config.Global()

	var reader io.Reader
	var source string
	fileLabel := args.File

	switch {
	case args.File != "":
		f, err := os.Open(args.File)
		if err != nil {
			wrapped := WrapError(err, "open statement")
			if args.JSON {
				DisplayErrorJSON("import", wrapped)
			}
			return wrapped
		}
		defer f.Close()
		reader = f
		source = strings.TrimSuffix(filepath.Base(args.File), filepath.Ext(args.File))

	case stdinIsPiped():
		reader = os.Stdin
		source = "stdin"
		fileLabel = "-"

	default:
		err := ErrMissingArgument("file", "penny import ~/Downloads/checking.csv")
		if args.JSON {
			DisplayErrorJSON("import", err)
		}
		return err
	}

	if args.Source != "" {
		source = args.Source
	}

	led, err := openLedger(cfg)
	if err != nil {
		wrapped := WrapError(err, "open ledger")
		if args.JSON {
			DisplayErrorJSON("import", wrapped)
		}
		return wrapped
	}
	defer led.Close()

	result, err := led.ImportCSV(reader, source)
	if err != nil {
		wrapped := WrapError(err, "import failed")
		if args.JSON {
			DisplayErrorJSON("import", wrapped)
		}
		return wrapped
	}

	totals, _ := led.Totals()

	if args.JSON {
		data := ImportData{
			File:              fileLabel,
			Source:            source,
			BatchID:           result.BatchID,
			Imported:          result.Imported,
			Duplicates:        result.Duplicates,
			Skipped:           result.Skipped,
			TotalTransactions: totals.Transactions,
		}
		NewJSONResponse("import", data).Print()
		return nil
	}

	fmt.Println(SuccessStyle.Render(fmt.Sprintf(
		"Imported %d transactions from %s", result.Imported, source)))
	if result.Duplicates > 0 {
		fmt.Println(DimStyle.Render(fmt.Sprintf("  %d duplicates skipped", result.Duplicates)))
	}
	if result.Skipped > 0 {
		fmt.Println(DimStyle.Render(fmt.Sprintf("  %d rows could not be parsed", result.Skipped)))
	}
	if !args.Quiet {
		fmt.Println(RenderLabel("Ledger total", util.FormatCount(totals.Transactions)+" transactions"))
	}
	return nil
}

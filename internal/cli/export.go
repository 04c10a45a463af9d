// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/export"
	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/session"
	"github.com/pennyworth/penny-tui/internal/store"
)

// =============================================================================
// EXPORT COMMAND
// =============================================================================

// HandleExportCommand writes a conversation transcript to a file. With no
// thread argument the active conversation is exported; "penny export list"
// shows what there is to pick from.
func HandleExportCommand(args Args) error {
	stateDir, err := config.StateDir()
	if err != nil {
		return err
	}
	registry := session.NewRegistry(store.NewFileStore(stateDir))

	if args.Subcommand == "list" {
		return listThreads(registry, args)
	}

	format := strings.ToLower(args.Format)
	if format == "" {
		format = "markdown"
	}
	switch format {
	case "markdown", "md", "json":
	default:
		err := ErrUnsupportedFormat(format, []string{"markdown", "json"})
		if args.JSON {
			DisplayErrorJSON("export", err)
		}
		return err
	}

	th, err := resolveThread(registry, args.ThreadID)
	if err != nil {
		if args.JSON {
			DisplayErrorJSON("export", err)
		}
		return err
	}

	msgs := registry.Messages(th.ID)
	if len(msgs) == 0 {
		err := NewValidationError("thread", th.Title, "has no messages to export", "")
		if args.JSON {
			DisplayErrorJSON("export", err)
		}
		return err
	}

	opts := export.DefaultOptions()
	opts.OpenAfterExport = false
	if args.Output != "" {
		opts.OutputDir = args.Output
	}

	transcript := export.NewTranscript(th, msgs)
	path, err := export.ExportAs(transcript, format, opts)
	if err != nil {
		wrapped := WrapError(err, "export failed")
		if args.JSON {
			DisplayErrorJSON("export", wrapped)
		}
		return wrapped
	}

	if args.JSON {
		data := ExportData{
			ThreadID: th.ID,
			Title:    th.Title,
			Messages: len(msgs),
			Format:   format,
			Path:     path,
		}
		NewJSONResponse("export", data).Print()
		return nil
	}

	fmt.Println(SuccessStyle.Render("Exported " + th.Title))
	fmt.Println(RenderLabel("File", path))
	fmt.Println(RenderLabel("Messages", strconv.Itoa(len(msgs))))
	return nil
}

// resolveThread finds a thread by list number, id, or id prefix. An empty
// reference means the active thread.
func resolveThread(registry *session.Registry, ref string) (model.Thread, error) {
	if ref == "" {
		th, ok := registry.ActiveThread()
		if !ok {
			return model.Thread{}, NewNotFoundError("thread", "active (no conversations yet)")
		}
		return th, nil
	}

	threads := registry.Threads()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(threads) {
		return threads[n-1], nil
	}
	for _, th := range threads {
		if th.ID == ref || strings.HasPrefix(th.ID, ref) {
			return th, nil
		}
	}
	return model.Thread{}, NewNotFoundError("thread", ref)
}

// threadListEntry is one row of export list --json.
type threadListEntry struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Pinned   bool   `json:"pinned"`
	Active   bool   `json:"active"`
	Messages int    `json:"messages"`
	Updated  string `json:"updated"`
}

func listThreads(registry *session.Registry, args Args) error {
	threads := registry.Threads()
	activeID := registry.ActiveID()

	if args.JSON {
		entries := make([]threadListEntry, 0, len(threads))
		for i, th := range threads {
			entries = append(entries, threadListEntry{
				Index:    i + 1,
				ID:       th.ID,
				Title:    th.Title,
				Pinned:   th.Pinned,
				Active:   th.ID == activeID,
				Messages: len(registry.Messages(th.ID)),
				Updated:  time.UnixMilli(th.UpdatedAt).UTC().Format(time.RFC3339),
			})
		}
		NewJSONResponse("export", entries).Print()
		return nil
	}

	if len(threads) == 0 {
		fmt.Println(DimStyle.Render("No conversations yet."))
		return nil
	}
	for i, th := range threads {
		marker := "  "
		if th.ID == activeID {
			marker = "* "
		}
		pin := ""
		if th.Pinned {
			pin = " [pinned]"
		}
		updated := time.UnixMilli(th.UpdatedAt).Format("2006-01-02")
		fmt.Printf("%s%2d. %s%s %s\n",
			marker, i+1, th.Title, HighlightStyle.Render(pin),
			DimStyle.Render(fmt.Sprintf("(%d messages, %s)", len(registry.Messages(th.ID)), updated)))
	}
	return nil
}

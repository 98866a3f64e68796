package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/travisjeffery/writegood/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	Diffs    bool
}

// LogEntry is one log line in JSON output.
type LogEntry struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	Version   string `json:"version"`
	Hash      string `json:"hash"`
	Text      string `json:"text"`
	DiffsHTML string `json:"diffs_html,omitempty"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log <id>",
		Short: "Show the change log of a stored document",
		Long: `List the create and update entries stored for a document, oldest first.

Examples:
  writegood log --db writegood.db draft
  writegood log --db writegood.db draft --diffs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Diffs, "diffs", false, "include text diffs")

	return cmd
}

func runLog(opts *LogOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	if _, err := st.Document(ctx, id); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to load document", err)
	}
	logs, err := st.Logs(ctx, id)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read logs", err)
	}

	entries := make([]LogEntry, len(logs))
	for i, l := range logs {
		entries[i] = LogEntry{
			Seq:     l.Seq,
			Type:    string(l.Type),
			Source:  l.Source,
			Version: l.VersionID,
			Hash:    l.Hash,
			Text:    l.Text,
		}
		if opts.Diffs {
			entries[i].DiffsHTML = l.DiffsHTML
		}
	}

	if f.JSON() {
		return f.Success(entries, "")
	}
	w := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(w, "%d %-6s %-8s %s %s\n", e.Seq, e.Type, e.Source, e.Version, shortHash(e.Hash))
		if opts.Diffs {
			fmt.Fprintf(w, "    %s\n", e.DiffsHTML)
		}
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/render"
	"github.com/travisjeffery/writegood/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Output   string
}

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	HTML string `json:"html,omitempty"`
	Path string `json:"path,omitempty"`
	Hash string `json:"hash"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Export a document as sanitized HTML",
		Long: `Render a document to HTML.

The argument is a JSON or YAML document file. With --db it is the id of a
stored document instead. The output is sanitized before it is written.

Examples:
  writegood export draft.json
  writegood export --db writegood.db draft -o draft.html`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "read the document from this SQLite database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write HTML to this file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var root *doc.Document
	if opts.Database != "" {
		stored, err := loadStored(cmd.Context(), opts.Database, arg)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to load document", err)
		}
		root = stored.Doc
	} else {
		d, err := readDocument(cmd, arg)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInput, "failed to read document", err)
		}
		root = d
	}

	out, err := render.HTML(root)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalid, "failed to render document", err)
	}
	hash, err := doc.Hash(root)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash document", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(out), 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		slog.Debug("html exported", "path", opts.Output, "bytes", len(out))
		return f.Success(ExportResult{Path: opts.Output, Hash: hash}, "✓ Exported to "+opts.Output)
	}
	return f.Success(ExportResult{HTML: out, Hash: hash}, out)
}

// loadStored reads one document from a database file. The database must
// already exist.
func loadStored(ctx context.Context, path, id string) (store.Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := os.Stat(path); err != nil {
		return store.Document{}, err
	}
	st, err := store.Open(path)
	if err != nil {
		return store.Document{}, err
	}
	defer st.Close()
	return st.Document(ctx, id)
}

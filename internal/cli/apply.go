package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/travisjeffery/writegood/internal/bridge"
	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/session"
	"github.com/travisjeffery/writegood/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string
	ID       string

	// Generator overrides the version ID generator (for testing).
	Generator session.IDGenerator
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <document> <operations>",
		Short: "Apply an operation batch to a document",
		Long: `Load a document into an editor session and dispatch one batch of operations.

The document is normalized on load. The batch is applied atomically and then
normalized. With --db, the loaded and edited versions are written to the
SQLite store under --id, along with their text diffs.

Examples:
  writegood apply draft.json ops.yaml
  writegood apply draft.json ops.yaml --db writegood.db --id draft
  writegood apply - ops.json --format json < draft.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (optional)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "document id in the database (default: document file name)")

	return cmd
}

func runApply(opts *ApplyOptions, docPath, opsPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	root, err := readDocument(cmd, docPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to read document", err)
	}
	ops, err := readOperations(cmd, opsPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to read operations", err)
	}

	var sessOpts []session.Option
	if opts.Generator != nil {
		sessOpts = append(sessOpts, session.WithGenerator(opts.Generator))
	}
	sess, err := opts.settings().NewSession(sessOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}
	b, err := bridge.Connect(ctx, sess)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect bridge", err)
	}
	if _, err := b.Load(ctx, root, nil); err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalid, "failed to load document", err)
	}

	var fired []string
	b.Subscribe(bridge.SubscriberFunc(func(_ context.Context, c session.Change) {
		fired = c.Fired
	}))

	var persister *store.Persister
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		id := opts.ID
		if id == "" {
			id = documentIDFromPath(docPath)
		}
		if err := storeLoaded(ctx, st, id, sess.Current()); err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to store document", err)
		}
		persister = store.NewPersister(st, id)
		b.Subscribe(persister)
	}

	v, err := b.Dispatch(ctx, ops)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeApply, "failed to apply operations", err)
	}
	if persister != nil {
		if err := persister.Err(); err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to persist version", err)
		}
	}
	f.VerboseLog("Applied %d operation(s), %d fix(es)", len(ops), len(fired))

	out, encoded, err := newDocumentOutput(v.Doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode document", err)
	}
	out.Selection = doc.SelectionValue(v.Selection)
	out.Fired = fired
	out.Version = v.ID
	return f.Success(out, encoded)
}

// storeLoaded records the loaded version: a new document, or a replace log
// entry when id already exists.
func storeLoaded(ctx context.Context, st *store.Store, id string, v session.Version) error {
	_, err := st.CreateDocument(ctx, id, id, v)
	if !store.IsDuplicateDocumentError(err) {
		return err
	}
	_, err = st.SaveVersion(ctx, id, session.SourceReplace, v)
	return err
}

// documentIDFromPath derives a document id from a file name.
func documentIDFromPath(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

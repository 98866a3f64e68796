package cli

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <document>",
		Short: "Normalize a document",
		Long: `Run the normalization pipeline over a document and print the result.

The document is read from a JSON or YAML file, or stdin when the path is "-".
Text output is the canonical JSON encoding of the normalized tree.

Examples:
  writegood normalize draft.json
  writegood normalize --config strict.cue draft.yaml
  cat draft.json | writegood normalize - --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(rootOpts, args[0], cmd)
		},
	}
}

func runNormalize(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	root, err := readDocument(cmd, path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to read document", err)
	}
	if problems := doc.Check(root); len(problems) > 0 {
		return f.Fail(ExitFailure, ErrCodeInvalid, "document is malformed", problemsError(problems))
	}

	pipeline, err := opts.settings().Pipeline()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build pipeline", err)
	}
	res, err := pipeline.Run(op.State{Doc: root})
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalid, "normalization failed", err)
	}
	slog.Debug("document normalized", "path", path, "fixes", res.Iterations())
	f.VerboseLog("Applied %d fix(es): %v", res.Iterations(), res.Fired)

	out, encoded, err := newDocumentOutput(res.State.Doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode document", err)
	}
	out.Fired = res.Fired
	return f.Success(out, encoded)
}

// problemsError joins structural problems into one error.
func problemsError(problems []doc.Problem) error {
	msgs := make([]string, len(problems))
	for i, p := range problems {
		msgs[i] = p.String()
	}
	return errors.New(strings.Join(msgs, "; "))
}

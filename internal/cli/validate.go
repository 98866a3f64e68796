package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/travisjeffery/writegood/internal/doc"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []violation `json:"violations,omitempty"`
}

type violation struct {
	Plugin  string   `json:"plugin"`
	Path    doc.Path `json:"path"`
	Message string   `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a document against the schema without changing it",
		Long: `Report every schema violation in a document.

Structural defects and the violations the normalization pipeline would fix
are both reported. Nothing is rewritten.

Exit codes:
  0 - Document is valid
  1 - Violations found
  2 - Command error (unreadable document, bad config)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	root, err := readDocument(cmd, path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to read document", err)
	}

	var result ValidationResult
	for _, p := range doc.Check(root) {
		result.Violations = append(result.Violations, violation{Plugin: "structure", Path: p.Path, Message: p.Message})
	}
	if len(result.Violations) == 0 {
		pipeline, err := opts.settings().Pipeline()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build pipeline", err)
		}
		for _, v := range pipeline.Validate(root) {
			result.Violations = append(result.Violations, violation{Plugin: v.Plugin, Path: v.Path, Message: v.Message})
		}
	}
	result.Valid = len(result.Violations) == 0

	if result.Valid {
		return f.Success(result, "✓ Document is valid")
	}

	if f.JSON() {
		if err := f.Error(ErrCodeInvalid, fmt.Sprintf("%d violation(s)", len(result.Violations)), result.Violations); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "✗ %d violation(s)\n", len(result.Violations))
		for _, v := range result.Violations {
			fmt.Fprintf(w, "  %s at %s: %s\n", v.Plugin, v.Path, v.Message)
		}
	}
	return NewExitError(ExitFailure, "document has violations")
}

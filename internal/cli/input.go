package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

// readInput reads a file, or the command's stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// readDocument reads a document tree. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func readDocument(cmd *cobra.Command, path string) (*doc.Document, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if !isYAML(path) {
		return doc.Decode(data)
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	n, err := doc.FromJSONValue(raw)
	if err != nil {
		return nil, err
	}
	root, ok := n.(*doc.Document)
	if !ok {
		return nil, fmt.Errorf("expected a document, got %s", n.Type())
	}
	return root, nil
}

// readOperations reads an operation batch from JSON or YAML.
func readOperations(cmd *cobra.Command, path string) ([]op.Operation, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read operations: %w", err)
	}
	return op.DecodeBatch(data)
}

func isYAML(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// documentOutput is the JSON payload for commands that print a tree.
type documentOutput struct {
	Document  map[string]any `json:"document"`
	Selection map[string]any `json:"selection,omitempty"`
	Text      string         `json:"text"`
	Hash      string         `json:"hash"`
	Fired     []string       `json:"fired,omitempty"`
	Version   string         `json:"version,omitempty"`
}

func newDocumentOutput(root *doc.Document) (documentOutput, string, error) {
	tree, err := doc.ToJSONValue(root)
	if err != nil {
		return documentOutput{}, "", err
	}
	encoded, err := doc.Encode(root)
	if err != nil {
		return documentOutput{}, "", err
	}
	hash, err := doc.Hash(root)
	if err != nil {
		return documentOutput{}, "", err
	}
	out := documentOutput{
		Document: tree,
		Text:     doc.PlainText(root),
		Hash:     hash,
	}
	return out, string(encoded), nil
}

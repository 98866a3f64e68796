package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/travisjeffery/writegood/internal/config"
	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

// Scenario defines an editor scenario: a starting document, the steps
// applied to it and the assertions checked afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config overrides the default configuration. Same keys as a config file.
	Config yaml.Node `yaml:"config,omitempty"`

	// Document is the starting tree in the JSON value format. If empty, the
	// session starts on its initial document.
	Document any `yaml:"document,omitempty"`

	// Selection is the starting selection. Requires Document.
	Selection any `yaml:"selection,omitempty"`

	// Steps drive the session, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one call into the session. Exactly one action field is set.
type Step struct {
	Dispatch []any         `yaml:"dispatch,omitempty"`
	Undo     bool          `yaml:"undo,omitempty"`
	Redo     bool          `yaml:"redo,omitempty"`
	Select   any           `yaml:"select,omitempty"`
	Replace  *DocumentStep `yaml:"replace,omitempty"`
	Load     *DocumentStep `yaml:"load,omitempty"`

	// Expect checks the step's outcome. If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// DocumentStep carries the tree and optional selection for replace and load.
type DocumentStep struct {
	Document  any `yaml:"document"`
	Selection any `yaml:"selection,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected error kind (see the Err* constants). Empty
	// means the step succeeds.
	Error string `yaml:"error,omitempty"`

	// Fired lists the plugins expected to correct the step, in order.
	Fired []string `yaml:"fired,omitempty"`

	// Text is the expected plain text after the step.
	Text *string `yaml:"text,omitempty"`
}

// Step action names.
const (
	ActionDispatch = "dispatch"
	ActionUndo     = "undo"
	ActionRedo     = "redo"
	ActionSelect   = "select"
	ActionReplace  = "replace"
	ActionLoad     = "load"
)

// Error kinds a step can expect.
const (
	ErrInvalidPath     = "invalid_path"
	ErrDiverged        = "diverged"
	ErrFix             = "fix"
	ErrInvalidDocument = "invalid_document"
	ErrHistoryEmpty    = "history_empty"
	ErrRedoEmpty       = "redo_empty"
	ErrReentrant       = "reentrant"
)

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type (see the Assert* constants).
	Type string `yaml:"type"`

	// Text is the expected plain text (text).
	Text string `yaml:"text,omitempty"`

	// Document is the expected tree (document).
	Document any `yaml:"document,omitempty"`

	// Selection is the expected selection (selection).
	Selection any `yaml:"selection,omitempty"`

	// Undo and Redo are the expected history depths (history).
	Undo int `yaml:"undo,omitempty"`
	Redo int `yaml:"redo,omitempty"`

	// Step and Plugins select a step and its expected firings (fired).
	Step    int      `yaml:"step,omitempty"`
	Plugins []string `yaml:"plugins,omitempty"`

	// Count is the expected number of persisted log entries (logs).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertText      = "text"
	AssertDocument  = "document"
	AssertSelection = "selection"
	AssertHistory   = "history"
	AssertFired     = "fired"
	AssertValid     = "valid"
	AssertLogs      = "logs"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// config decodes the scenario's overrides over the default configuration.
func (s *Scenario) config() (config.Config, error) {
	if s.Config.Kind == 0 {
		return config.Default(), nil
	}
	data, err := yaml.Marshal(&s.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return config.ParseYAML(data)
}

// action returns the step's action name, or "" if none or several are set.
func (st Step) action() string {
	var actions []string
	if st.Dispatch != nil {
		actions = append(actions, ActionDispatch)
	}
	if st.Undo {
		actions = append(actions, ActionUndo)
	}
	if st.Redo {
		actions = append(actions, ActionRedo)
	}
	if st.Select != nil {
		actions = append(actions, ActionSelect)
	}
	if st.Replace != nil {
		actions = append(actions, ActionReplace)
	}
	if st.Load != nil {
		actions = append(actions, ActionLoad)
	}
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

// validateScenario checks required fields and decodes every embedded tree,
// selection and operation once so that malformed input fails at load time.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if _, err := s.config(); err != nil {
		return err
	}

	if s.Document != nil {
		if _, err := decodeDocument(s.Document); err != nil {
			return fmt.Errorf("document: %w", err)
		}
	}
	if s.Selection != nil {
		if s.Document == nil {
			return fmt.Errorf("selection requires document")
		}
		if _, err := doc.SelectionFromJSONValue(s.Selection); err != nil {
			return fmt.Errorf("selection: %w", err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, len(s.Steps)); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step) error {
	switch step.action() {
	case "":
		return fmt.Errorf("exactly one of dispatch, undo, redo, select, replace, load is required")
	case ActionDispatch:
		if _, err := decodeOps(step.Dispatch); err != nil {
			return err
		}
	case ActionSelect:
		if _, err := doc.SelectionFromJSONValue(step.Select); err != nil {
			return fmt.Errorf("select: %w", err)
		}
	case ActionReplace:
		if err := validateDocumentStep(step.Replace); err != nil {
			return fmt.Errorf("replace: %w", err)
		}
	case ActionLoad:
		if err := validateDocumentStep(step.Load); err != nil {
			return fmt.Errorf("load: %w", err)
		}
	}

	if step.Expect != nil && step.Expect.Error != "" {
		switch step.Expect.Error {
		case ErrInvalidPath, ErrDiverged, ErrFix, ErrInvalidDocument, ErrHistoryEmpty, ErrRedoEmpty, ErrReentrant:
		default:
			return fmt.Errorf("unknown error kind %q", step.Expect.Error)
		}
	}
	return nil
}

func validateDocumentStep(ds *DocumentStep) error {
	if ds.Document == nil {
		return fmt.Errorf("document is required")
	}
	if _, err := decodeDocument(ds.Document); err != nil {
		return err
	}
	if ds.Selection != nil {
		if _, err := doc.SelectionFromJSONValue(ds.Selection); err != nil {
			return fmt.Errorf("selection: %w", err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion, steps int) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertText, AssertValid:
	case AssertDocument:
		if a.Document == nil {
			return fmt.Errorf("document is required for %s", a.Type)
		}
		if _, err := decodeDocument(a.Document); err != nil {
			return fmt.Errorf("document: %w", err)
		}
	case AssertSelection:
		if _, err := doc.SelectionFromJSONValue(a.Selection); err != nil {
			return fmt.Errorf("selection: %w", err)
		}
	case AssertHistory:
		if a.Undo < 0 || a.Redo < 0 {
			return fmt.Errorf("undo and redo must be non-negative for %s", a.Type)
		}
	case AssertFired:
		if a.Step < 0 || a.Step >= steps {
			return fmt.Errorf("step %d out of range for %s", a.Step, a.Type)
		}
	case AssertLogs:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for %s", a.Type)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func decodeDocument(v any) (*doc.Document, error) {
	n, err := doc.FromJSONValue(v)
	if err != nil {
		return nil, err
	}
	root, ok := n.(*doc.Document)
	if !ok {
		return nil, fmt.Errorf("expected a document, got %s", n.Type())
	}
	return root, nil
}

func decodeOps(raw []any) ([]op.Operation, error) {
	ops := make([]op.Operation, 0, len(raw))
	for i, item := range raw {
		o, err := op.FromValue(item)
		if err != nil {
			return nil, fmt.Errorf("dispatch[%d]: %w", i, err)
		}
		ops = append(ops, o)
	}
	return ops, nil
}

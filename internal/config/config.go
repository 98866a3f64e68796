// Package config loads editor configuration from YAML or CUE files.
//
// A file only needs to name the settings it changes; everything else keeps
// the value from Default. YAML files are decoded strictly (unknown keys are
// errors). CUE files are unified with the embedded #Config schema first, so
// CUE constraints and references may be used freely.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/normalize"
	"github.com/travisjeffery/writegood/internal/session"
)

//go:embed schema.cue
var schemaSource string

// ListBlockKinds names the block kinds used for lists.
type ListBlockKinds struct {
	Ordered   string `yaml:"ordered"`
	Unordered string `yaml:"unordered"`
	Item      string `yaml:"item"`
}

// Config is the full editor configuration.
type Config struct {
	// TargetEmptyBlockKind is the block kind the document always keeps at
	// least one of.
	TargetEmptyBlockKind string `yaml:"target_empty_block_kind"`

	ListBlockKinds ListBlockKinds `yaml:"list_block_kinds"`

	// LinkDetectionPattern is a Go regular expression matching URLs in
	// inserted text.
	LinkDetectionPattern string `yaml:"link_detection_pattern"`

	MaxNormalizeIterations int `yaml:"max_normalize_iterations"`

	// HistoryLimit bounds the undo stack; 0 keeps every entry.
	HistoryLimit int `yaml:"history_limit"`

	MergeAdjacentText bool `yaml:"merge_adjacent_text"`

	// Plugins selects and orders the normalization plugins. Empty runs
	// every built-in plugin in the default order.
	Plugins []string `yaml:"plugins,omitempty"`

	// Database is the SQLite file used by the document store.
	Database string `yaml:"database"`
}

// Default returns the stock configuration: no-empty on paragraphs and the
// ordered-list/unordered-list/list-item list kinds.
func Default() Config {
	return Config{
		TargetEmptyBlockKind: string(doc.KindParagraph),
		ListBlockKinds: ListBlockKinds{
			Ordered:   string(doc.KindOrderedList),
			Unordered: string(doc.KindUnorderedList),
			Item:      string(doc.KindListItem),
		},
		LinkDetectionPattern:   normalize.DefaultLinkPattern,
		MaxNormalizeIterations: normalize.DefaultMaxIterations,
		HistoryLimit:           session.DefaultHistoryLimit,
		MergeAdjacentText:      true,
		Database:               "writegood.db",
	}
}

// Load reads a configuration file. The format follows the extension:
// .cue for CUE, anything else is read as YAML (which includes JSON).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	var cfg Config
	if filepath.Ext(path) == ".cue" {
		cfg, err = ParseCUE(data, path)
	} else {
		cfg, err = ParseYAML(data)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseYAML decodes YAML over Default and validates the result.
func ParseYAML(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseCUE evaluates CUE source against the #Config schema, then decodes it
// over Default and validates the result.
func ParseCUE(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Config{}, fmt.Errorf("compile cue: %w", err)
	}
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate cue: %w", err)
	}

	// JSON is valid YAML, so the exported value goes through the same strict
	// decoder as YAML files.
	exported, err := unified.MarshalJSON()
	if err != nil {
		return Config{}, fmt.Errorf("export cue: %w", err)
	}
	return ParseYAML(exported)
}

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks every field and returns all problems joined.
func (c Config) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	kinds := map[string]string{
		"target_empty_block_kind":    c.TargetEmptyBlockKind,
		"list_block_kinds.ordered":   c.ListBlockKinds.Ordered,
		"list_block_kinds.unordered": c.ListBlockKinds.Unordered,
		"list_block_kinds.item":      c.ListBlockKinds.Item,
	}
	fields := make([]string, 0, len(kinds))
	for field := range kinds {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	seen := make(map[string]string, len(kinds))
	for _, field := range fields {
		kind := kinds[field]
		if kind == "" {
			fail(field, "must not be empty")
			continue
		}
		if other, dup := seen[kind]; dup {
			fail(field, "kind %q already used by %s", kind, other)
			continue
		}
		seen[kind] = field
	}

	if c.LinkDetectionPattern == "" {
		fail("link_detection_pattern", "must not be empty")
	} else if _, err := regexp.Compile(c.LinkDetectionPattern); err != nil {
		fail("link_detection_pattern", "%v", err)
	}
	if c.MaxNormalizeIterations <= 0 {
		fail("max_normalize_iterations", "must be positive, got %d", c.MaxNormalizeIterations)
	}
	if c.HistoryLimit < 0 {
		fail("history_limit", "must not be negative, got %d", c.HistoryLimit)
	}
	for _, name := range c.Plugins {
		if !slices.Contains(normalize.DefaultOrder, name) {
			fail("plugins", "unknown plugin %q", name)
		}
	}
	return errors.Join(errs...)
}

// Settings converts the configuration into plugin settings.
func (c Config) Settings() (normalize.Settings, error) {
	pattern, err := regexp.Compile(c.LinkDetectionPattern)
	if err != nil {
		return normalize.Settings{}, &ValidationError{Field: "link_detection_pattern", Message: err.Error()}
	}
	return normalize.Settings{
		TargetKind: doc.Kind(c.TargetEmptyBlockKind),
		ListKinds: normalize.ListKinds{
			Ordered:   doc.Kind(c.ListBlockKinds.Ordered),
			Unordered: doc.Kind(c.ListBlockKinds.Unordered),
			Item:      doc.Kind(c.ListBlockKinds.Item),
		},
		LinkPattern:       pattern,
		MergeAdjacentText: c.MergeAdjacentText,
		Plugins:           slices.Clone(c.Plugins),
	}, nil
}

// Pipeline builds the normalization pipeline described by the configuration.
func (c Config) Pipeline() (*normalize.Pipeline, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	return normalize.FromSettings(s, normalize.WithMaxIterations(c.MaxNormalizeIterations))
}

// SessionOptions returns the session options implied by the configuration.
func (c Config) SessionOptions() []session.Option {
	return []session.Option{session.WithHistoryLimit(c.HistoryLimit)}
}

// NewSession builds a pipeline and a session from the configuration.
func (c Config) NewSession(opts ...session.Option) (*session.Session, error) {
	p, err := c.Pipeline()
	if err != nil {
		return nil, err
	}
	return session.New(p, append(c.SessionOptions(), opts...)...), nil
}

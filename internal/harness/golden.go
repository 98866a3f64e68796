package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/travisjeffery/writegood/internal/doc"
)

// TraceSnapshot captures a scenario execution for golden comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Final        map[string]any
}

// NewTraceSnapshot builds the snapshot of a result.
func NewTraceSnapshot(name string, result *Result) (*TraceSnapshot, error) {
	final := map[string]any{
		"selection": formatSelection(result.Final.Selection),
	}
	if result.Final.Doc != nil {
		tree, err := doc.ToJSONValue(result.Final.Doc)
		if err != nil {
			return nil, err
		}
		final["document"] = tree
	}
	return &TraceSnapshot{ScenarioName: name, Trace: result.Trace, Final: final}, nil
}

// toCanonicalMap converts the snapshot to plain maps for canonical JSON.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"step":      ev.Step,
			"action":    ev.Action,
			"seq":       int64(ev.Seq),
			"version":   ev.Version,
			"text":      ev.Text,
			"selection": ev.Selection,
		}
		if ev.Source != "" {
			m["source"] = ev.Source
		}
		if len(ev.Fired) > 0 {
			fired := make([]any, len(ev.Fired))
			for j, f := range ev.Fired {
				fired[j] = f
			}
			m["fired"] = fired
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		traceList[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"final":         s.Final,
	}
}

// MarshalCanonical encodes the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return doc.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := NewTraceSnapshot(scenarioName, result)
	if err != nil {
		return err
	}
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

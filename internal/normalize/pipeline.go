package normalize

import (
	"log/slog"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

// DefaultMaxIterations bounds the number of fixes in one run.
const DefaultMaxIterations = 100

// Pipeline runs plugins in a fixed order until none reports a violation.
// A Pipeline holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	plugins       []Plugin
	maxIterations int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxIterations sets the iteration budget.
//
// Default: 100 (DefaultMaxIterations)
func WithMaxIterations(n int) Option {
	return func(p *Pipeline) {
		p.maxIterations = n
	}
}

// New creates a pipeline running plugins in the given order. The slice is
// copied.
func New(plugins []Plugin, opts ...Option) *Pipeline {
	p := &Pipeline{
		plugins:       append([]Plugin(nil), plugins...),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plugins returns the plugin names in run order.
func (p *Pipeline) Plugins() []string {
	names := make([]string, len(p.plugins))
	for i, pl := range p.plugins {
		names[i] = pl.Name()
	}
	return names
}

// MaxIterations returns the iteration budget.
func (p *Pipeline) MaxIterations() int {
	return p.maxIterations
}

// Result is the outcome of a successful run.
type Result struct {
	State op.State

	// Fired lists the plugin behind each applied fix, in order.
	Fired []string
}

// Iterations returns the number of fixes applied.
func (r Result) Iterations() int {
	return len(r.Fired)
}

// Run normalizes st.Doc. The selection and inserted ranges in st are carried
// through every fix. On error the caller must discard the edit.
func (p *Pipeline) Run(st op.State) (Result, error) {
	budget := newQuota(p.maxIterations)
	history := newTreeHistory()
	if _, err := history.Record(st.Doc); err != nil {
		return Result{}, err
	}

	res := Result{State: st}
	for {
		plugin, v, found := p.firstViolation(res.State)
		if !found {
			return res, nil
		}
		if err := budget.Check(plugin.Name()); err != nil {
			return Result{}, err
		}

		ops, err := plugin.Fix(res.State, v)
		if err != nil {
			return Result{}, &FixError{Plugin: plugin.Name(), Violation: v, Err: err}
		}
		next, err := op.Transact(res.State, ops)
		if err != nil {
			return Result{}, &FixError{Plugin: plugin.Name(), Violation: v, Err: err}
		}
		res.Fired = append(res.Fired, plugin.Name())

		slog.Debug("normalization fix applied",
			"plugin", plugin.Name(),
			"iteration", len(res.Fired),
			"path", v.Path.String(),
			"ops", len(ops),
		)

		repeated, err := history.Record(next.Doc)
		if err != nil {
			return Result{}, err
		}
		if repeated {
			return Result{}, &DivergedError{
				Plugin:     plugin.Name(),
				Iterations: len(res.Fired),
				Limit:      p.maxIterations,
				Cycle:      true,
			}
		}
		res.State = next
	}
}

// Normalize returns root with every invariant restored. Text-range plugins
// have nothing to look at, so Normalize(Normalize(t)) == Normalize(t).
func (p *Pipeline) Normalize(root *doc.Document) (*doc.Document, error) {
	res, err := p.Run(op.State{Doc: root})
	if err != nil {
		return nil, err
	}
	return res.State.Doc, nil
}

// Validate reports the structural defects of root plus the first violation
// of each plugin. An empty result means root is already normalized.
func (p *Pipeline) Validate(root *doc.Document) []Violation {
	var out []Violation
	for _, problem := range doc.Check(root) {
		out = append(out, Violation{Plugin: "structure", Path: problem.Path, Message: problem.Message})
	}
	if len(out) > 0 {
		return out
	}
	st := op.State{Doc: root}
	for _, pl := range p.plugins {
		if v, ok := pl.Check(st); ok {
			v.Plugin = pl.Name()
			out = append(out, v)
		}
	}
	return out
}

func (p *Pipeline) firstViolation(st op.State) (Plugin, Violation, bool) {
	for _, pl := range p.plugins {
		if v, ok := pl.Check(st); ok {
			return pl, v, true
		}
	}
	return nil, Violation{}, false
}

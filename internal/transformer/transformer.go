// Package transformer builds a new document out of a source document by
// running a list of declarative steps. Each step reads a value at a source
// JSON Pointer, optionally passes it through expressions, and writes the
// outcome at a result JSON Pointer. A "[i]" in a pointer iterates over the
// elements of the sequence found at that point.
package transformer

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mcncl/goflatten/internal/models"
	"github.com/mcncl/goflatten/internal/pointer"
)

// Iterator marks the point in a pointer where a sequence is iterated.
const Iterator = "[i]"

var (
	// ErrUnknownFunction is returned for expressions that call an unregistered function.
	ErrUnknownFunction = stderrors.New("unknown function")
	// ErrInvalidExpression is returned for expressions that cannot be parsed.
	ErrInvalidExpression = stderrors.New("invalid expression")
)

// Step is one transformation as written in a config or transformation file.
type Step struct {
	// Append adds each produced value to the sequence at ResultPointer
	// instead of merging it into what is already there.
	Append bool `yaml:"append"`
	// UseResultAsSource reads from the document built so far instead of the source.
	UseResultAsSource bool     `yaml:"useResultAsSource"`
	SourcePointer     string   `yaml:"sourcePointer"`
	ResultPointer     string   `yaml:"resultPointer"`
	Expressions       []string `yaml:"expressions"`
}

// Func is an expression function. source is the value read for the step and
// result the value currently at the result pointer; the returned value
// replaces result.
type Func func(source, result models.Value, arg string) (models.Value, error)

// Option configures a Transformer.
type Option func(*Transformer)

// WithFunction registers fn under name, replacing a built-in of that name.
func WithFunction(name string, fn Func) Option {
	return func(t *Transformer) {
		t.functions[name] = fn
	}
}

// Transformer runs compiled steps in order.
type Transformer struct {
	functions map[string]Func
	steps     []compiledStep
}

// New compiles steps. Expressions are checked up front so a bad step fails
// before any document is read.
func New(steps []Step, opts ...Option) (*Transformer, error) {
	t := &Transformer{functions: builtins()}
	for _, opt := range opts {
		opt(t)
	}

	for i, step := range steps {
		compiled, err := t.compile(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		t.steps = append(t.steps, compiled)
	}
	return t, nil
}

// Len returns the number of steps.
func (t *Transformer) Len() int {
	return len(t.steps)
}

// Transform runs every step against source and returns the resulting
// document, which starts out as an empty mapping. source is not modified.
func (t *Transformer) Transform(source models.Value) (models.Value, error) {
	result := models.Map(models.NewMapping())
	for i, step := range t.steps {
		var err error
		result, err = step.apply(source, result)
		if err != nil {
			return models.Value{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return result, nil
}

type expression struct {
	literal bool
	value   string
	fn      Func
	arg     string
}

type compiledStep struct {
	Step
	expressions    []expression
	sourcePointers []string
	resultPointers []string
}

func (t *Transformer) compile(step Step) (compiledStep, error) {
	c := compiledStep{
		Step:           step,
		sourcePointers: strings.Split(step.SourcePointer, Iterator),
		resultPointers: strings.Split(step.ResultPointer, Iterator),
	}
	for _, p := range slices.Concat(c.sourcePointers, c.resultPointers) {
		if _, err := pointer.Parse(p); err != nil {
			return compiledStep{}, err
		}
	}
	for _, raw := range step.Expressions {
		e, ok, err := t.parseExpression(raw)
		if err != nil {
			return compiledStep{}, err
		}
		if ok {
			c.expressions = append(c.expressions, e)
		}
	}
	return c, nil
}

// parseExpression reads either a "quoted literal" or name(arg). Blank
// expressions are skipped.
func (t *Transformer) parseExpression(raw string) (expression, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return expression{}, false, nil
	}

	if strings.HasPrefix(raw, `"`) {
		if len(raw) < 2 || !strings.HasSuffix(raw, `"`) {
			return expression{}, false, fmt.Errorf("%w: unterminated literal %s", ErrInvalidExpression, raw)
		}
		return expression{literal: true, value: raw[1 : len(raw)-1]}, true, nil
	}

	name, rest, hasArgs := strings.Cut(raw, "(")
	arg := ""
	if hasArgs {
		if !strings.HasSuffix(rest, ")") {
			return expression{}, false, fmt.Errorf("%w: missing ')' in %s", ErrInvalidExpression, raw)
		}
		arg = rest[:len(rest)-1]
	}
	name = strings.TrimSpace(name)
	fn, ok := t.functions[name]
	if !ok {
		return expression{}, false, fmt.Errorf("%w %q", ErrUnknownFunction, name)
	}
	return expression{fn: fn, arg: arg}, true, nil
}

func (e expression) eval(source, result models.Value) (models.Value, error) {
	if e.literal {
		return models.Scalar(e.value), nil
	}
	return e.fn(source, result, e.arg)
}

func (s compiledStep) apply(source, result models.Value) (models.Value, error) {
	if s.UseResultAsSource {
		source = result
	}
	return s.transform(source, result, s.sourcePointers, s.resultPointers)
}

// transform walks one "[i]" level per call. With a single source pointer
// left it writes the value; otherwise it iterates the sequence at the first
// source pointer and recurses into each element.
func (s compiledStep) transform(source, result models.Value, sourcePointers, resultPointers []string) (models.Value, error) {
	if len(sourcePointers) == 1 {
		return s.write(source, result, sourcePointers[0], strings.Join(resultPointers, Iterator))
	}

	value, ok, err := lookup(source, sourcePointers[0])
	if err != nil || !ok {
		return result, err
	}
	elems := []models.Value{value}
	if value.Kind() == models.KindSequence {
		elems = value.Elems()
	}

	at := ""
	var restResult []string
	if len(resultPointers) > 0 {
		at, restResult = resultPointers[0], resultPointers[1:]
	}
	// Without a matching "[i]" in the result pointer the produced values are
	// collected into one sequence.
	collect := len(restResult) == 0

	var existing []models.Value
	if current, found, _ := lookup(result, at); found && current.Kind() == models.KindSequence {
		existing = current.Elems()
	}
	out := slices.Clone(existing)

	pos := 0
	for i, elem := range elems {
		local := models.Map(models.NewMapping())
		if !s.Append && !collect && i < len(existing) {
			local = existing[i]
		}
		produced, err := s.transform(elem, local, sourcePointers[1:], restResult)
		if err != nil {
			return models.Value{}, err
		}

		items := []models.Value{produced}
		if collect && produced.Kind() == models.KindSequence {
			items = produced.Elems()
		}
		for _, item := range items {
			switch {
			case s.Append || pos >= len(out):
				out = append(out, item)
			case collect:
				out[pos] = merge(item, out[pos])
			default:
				out[pos] = item
			}
			pos++
		}
	}
	return pointer.Set(result, at, models.Sequence(out...))
}

// write stores the value read at from in result at to.
func (s compiledStep) write(source, result models.Value, from, to string) (models.Value, error) {
	value, ok, err := lookup(source, from)
	if err != nil || !ok {
		return result, err
	}

	if s.Append {
		produced, err := s.run(value, models.Map(models.NewMapping()))
		if err != nil {
			return models.Value{}, err
		}
		var elems []models.Value
		if current, found, _ := lookup(result, to); found && current.Kind() == models.KindSequence {
			elems = slices.Clone(current.Elems())
		}
		return pointer.Set(result, to, models.Sequence(append(elems, produced)...))
	}

	current, found, _ := lookup(result, to)
	if !found {
		current = models.Null()
	}
	produced, err := s.run(value, current)
	if err != nil {
		return models.Value{}, err
	}
	return pointer.Set(result, to, produced)
}

// run evaluates the expressions in order. Without expressions the source
// value itself is the outcome.
func (s compiledStep) run(source, result models.Value) (models.Value, error) {
	if len(s.expressions) == 0 {
		return source, nil
	}
	var err error
	for _, e := range s.expressions {
		in := source
		if s.UseResultAsSource {
			in = result
		}
		result, err = e.eval(in, result)
		if err != nil {
			return models.Value{}, err
		}
	}
	return result, nil
}

// lookup resolves ptr in v. Missing paths and null values report !ok so the
// step is skipped for them.
func lookup(v models.Value, ptr string) (models.Value, bool, error) {
	value, err := pointer.Resolve(v, ptr)
	if err != nil {
		if stderrors.Is(err, pointer.ErrNotFound) {
			return models.Value{}, false, nil
		}
		return models.Value{}, false, err
	}
	if value.IsNull() {
		return models.Value{}, false, nil
	}
	return value, true, nil
}

// merge combines a collected value with the one already at its position.
// Mappings are merged key by key, sequences element by element; otherwise
// the existing value stays.
func merge(src, dst models.Value) models.Value {
	switch {
	case src.Kind() == models.KindMapping && dst.Kind() == models.KindMapping:
		m := dst.Mapping().Clone()
		for key, value := range src.Mapping().All() {
			m.Set(key, value)
		}
		return models.Map(m)
	case src.Kind() == models.KindSequence && dst.Kind() == models.KindSequence:
		out := slices.Clone(dst.Elems())
		for i, e := range src.Elems() {
			if i < len(out) {
				out[i] = merge(e, out[i])
			} else {
				out = append(out, e)
			}
		}
		return models.Sequence(out...)
	default:
		return dst
	}
}

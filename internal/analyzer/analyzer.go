package analyzer

import (
	"fmt"
	"strings"

	"github.com/mcncl/goflatten/internal/flattener"
	"github.com/mcncl/goflatten/internal/models"
	"github.com/mcncl/goflatten/internal/pointer"
)

// Report describes what flattening a document changes
type Report struct {
	// CollapsedSequences counts singleton sequences replaced by their element
	CollapsedSequences int `json:"collapsed_sequences" yaml:"collapsed_sequences"`
	// DroppedNulls counts mapping entries omitted because their value was null
	DroppedNulls int `json:"dropped_nulls" yaml:"dropped_nulls"`
	// DroppedEmptySequences counts mapping entries omitted because their value was []
	DroppedEmptySequences int `json:"dropped_empty_sequences" yaml:"dropped_empty_sequences"`
	// Dropped holds the JSON Pointer of every omitted entry in traversal order
	Dropped []string `json:"dropped" yaml:"dropped"`
	// MaxDepth is the deepest container nesting of the source document
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
}

// Changed reports whether flattening alters the document's shape
func (r Report) Changed() bool {
	return r.CollapsedSequences > 0 || len(r.Dropped) > 0
}

// String renders the report as human-readable lines
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "collapsed sequences: %d\n", r.CollapsedSequences)
	fmt.Fprintf(&b, "dropped nulls: %d\n", r.DroppedNulls)
	fmt.Fprintf(&b, "dropped empty sequences: %d\n", r.DroppedEmptySequences)
	fmt.Fprintf(&b, "max depth: %d\n", r.MaxDepth)
	for _, p := range r.Dropped {
		fmt.Fprintf(&b, "dropped %s\n", p)
	}
	return b.String()
}

// Analyzer walks a document with the same rules as flattener.Flatten and
// records what the flattening will do.
type Analyzer struct {
	report Report
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the report for flattening v
func (a *Analyzer) Analyze(v models.Value) Report {
	return a.AnalyzeAt(v, "")
}

// AnalyzeAt is Analyze for a subtree selected with the JSON Pointer base.
// Dropped paths are reported relative to the whole document.
func (a *Analyzer) AnalyzeAt(v models.Value, base string) Report {
	a.report = Report{Dropped: []string{}}
	a.analyzeNode(v, base, 0)
	return a.report
}

// analyzeNode mirrors Flatten: path is the pointer of the node in the source
// document, depth the number of containers above it.
func (a *Analyzer) analyzeNode(v models.Value, path string, depth int) {
	switch v.Kind() {
	case models.KindSequence:
		a.observeDepth(depth + 1)
		elems := v.Elems()
		switch len(elems) {
		case 0:
			return
		case 1:
			a.report.CollapsedSequences++
			a.analyzeNode(elems[0], pointer.Join(path, "0"), depth+1)
			return
		}
		for i, e := range elems {
			a.analyzeNode(e, pointer.Join(path, fmt.Sprint(i)), depth+1)
		}
	case models.KindMapping:
		a.observeDepth(depth + 1)
		for key, val := range v.Mapping().All() {
			at := pointer.Join(path, key)
			if flattener.Omitted(val) {
				a.recordDrop(val, at)
				continue
			}
			a.analyzeNode(val, at, depth+1)
		}
	}
}

func (a *Analyzer) recordDrop(v models.Value, at string) {
	if v.IsNull() {
		a.report.DroppedNulls++
	} else {
		a.report.DroppedEmptySequences++
	}
	a.report.Dropped = append(a.report.Dropped, at)
}

func (a *Analyzer) observeDepth(depth int) {
	if depth > a.report.MaxDepth {
		a.report.MaxDepth = depth
	}
}

package metrics

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Namespace prefixes every exported metric name.
const Namespace = "homerouter"

// Kind distinguishes counters from gauges.
type Kind int

const (
	KindGauge Kind = iota
	KindCounter
)

func (k Kind) String() string {
	if k == KindCounter {
		return "counter"
	}
	return "gauge"
}

// Labels maps label names to values.
type Labels map[string]string

// Metric is a single sample in the uniform model shared by every collector
// and the exposition formatter.
type Metric struct {
	Name   string
	Help   string
	Kind   Kind
	Labels Labels
	Value  float64
}

// Desc describes a metric family. Collectors keep Descs as package-level
// values and stamp out samples with New.
type Desc struct {
	Subsystem string
	Name      string
	Unit      string
	Help      string
	Kind      Kind
}

// FQName is namespace_subsystem_name[_unit][_total].
func (d Desc) FQName() string {
	var b strings.Builder
	b.WriteString(Namespace)
	b.WriteByte('_')
	b.WriteString(d.Subsystem)
	b.WriteByte('_')
	b.WriteString(d.Name)
	if d.Unit != "" {
		b.WriteByte('_')
		b.WriteString(d.Unit)
	}
	if d.Kind == KindCounter {
		b.WriteString("_total")
	}
	return b.String()
}

// New builds a sample. Labels are given as alternating name/value pairs.
// An odd number of label arguments is a programming error and panics.
func (d Desc) New(value float64, labelPairs ...string) Metric {
	if len(labelPairs)%2 != 0 {
		panic(fmt.Sprintf("metrics: %s: odd number of label arguments", d.FQName()))
	}
	var labels Labels
	if len(labelPairs) > 0 {
		labels = make(Labels, len(labelPairs)/2)
		for i := 0; i < len(labelPairs); i += 2 {
			labels[labelPairs[i]] = labelPairs[i+1]
		}
	}
	return Metric{
		Name:   d.FQName(),
		Help:   d.Help,
		Kind:   d.Kind,
		Labels: labels,
		Value:  value,
	}
}

// Bool converts a flag to a gauge value.
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SortedKeys returns the label names in ascending order.
func (l Labels) SortedKeys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Compare orders metrics by name, then by their label sets compared as
// sorted name/value pairs.
func Compare(a, b Metric) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	ak, bk := a.Labels.SortedKeys(), b.Labels.SortedKeys()
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := cmp.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Labels[ak[i]], b.Labels[bk[i]]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ak), len(bk))
}

// Sort orders metrics in place by Compare.
func Sort(ms []Metric) {
	slices.SortStableFunc(ms, Compare)
}

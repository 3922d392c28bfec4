// Package exposition renders metrics in the Prometheus text format.
package exposition

import (
	"fmt"
	"io"
	"slices"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var format = expfmt.NewFormat(expfmt.TypeTextPlain)

// ContentType is the Content-Type header value of the encoded output.
var ContentType = string(format)

// Families groups metrics into metric families. The input is sorted first,
// so the result depends only on the set of metrics, not on their order.
// HELP and TYPE come from the first sample of each family.
func Families(ms []metrics.Metric) []*dto.MetricFamily {
	sorted := slices.Clone(ms)
	metrics.Sort(sorted)

	var out []*dto.MetricFamily
	var cur *dto.MetricFamily
	for _, m := range sorted {
		if cur == nil || cur.GetName() != m.Name {
			cur = &dto.MetricFamily{
				Name: proto.String(m.Name),
				Help: proto.String(m.Help),
				Type: metricType(m.Kind),
			}
			out = append(out, cur)
		}
		cur.Metric = append(cur.Metric, toDTO(m, cur.GetType()))
	}
	return out
}

func metricType(k metrics.Kind) *dto.MetricType {
	if k == metrics.KindCounter {
		return dto.MetricType_COUNTER.Enum()
	}
	return dto.MetricType_GAUGE.Enum()
}

func toDTO(m metrics.Metric, t dto.MetricType) *dto.Metric {
	out := &dto.Metric{}
	for _, k := range m.Labels.SortedKeys() {
		out.Label = append(out.Label, &dto.LabelPair{
			Name:  proto.String(k),
			Value: proto.String(m.Labels[k]),
		})
	}
	if t == dto.MetricType_COUNTER {
		out.Counter = &dto.Counter{Value: proto.Float64(m.Value)}
	} else {
		out.Gauge = &dto.Gauge{Value: proto.Float64(m.Value)}
	}
	return out
}

// Encode writes families in name order.
func Encode(w io.Writer, families []*dto.MetricFamily) error {
	sorted := slices.Clone(families)
	slices.SortStableFunc(sorted, func(a, b *dto.MetricFamily) int {
		return strings.Compare(a.GetName(), b.GetName())
	})

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range sorted {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("exposition: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Write encodes metrics together with families gathered elsewhere, such as
// a client_golang registry.
func Write(w io.Writer, ms []metrics.Metric, extra ...*dto.MetricFamily) error {
	return Encode(w, append(Families(ms), extra...))
}

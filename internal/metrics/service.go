package metrics

import (
	"sort"
	"strings"

	"affiliate/kit/observability"
)

type Service struct {
	m *observability.Metrics
}

func NewService(m *observability.Metrics) *Service {
	return &Service{m: m}
}

// Snapshot flattens the domain counters into name{label="value"} keys.
// Runtime collectors are left out.
func (s *Service) Snapshot() map[string]float64 {
	out := map[string]float64{}
	if s.m == nil {
		return out
	}
	families, err := s.m.Registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		name := mf.GetName()
		if strings.HasPrefix(name, "go_") {
			continue
		}
		for _, metric := range mf.GetMetric() {
			counter := metric.GetCounter()
			if counter == nil {
				continue
			}
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				labels = append(labels, lp.GetName()+`="`+lp.GetValue()+`"`)
			}
			sort.Strings(labels)
			key := name
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			out[key] = counter.GetValue()
		}
	}
	return out
}

// Package metrics emits AWS CloudWatch Embedded Metrics Format (EMF)
// documents from Lambda functions. Each document is one JSON line on stdout;
// CloudWatch extracts the metrics from the log stream, so emission costs no
// API call and adds no latency.
package metrics

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Standard CloudWatch metric units used by this service.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitNone         = "None"
)

// out is swapped for a buffer in tests.
var out io.Writer = os.Stdout

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

// Recorder accumulates dimensions, metric values, and properties for one EMF
// document. Not safe for concurrent use; create one per operation.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	defs       []metricDef
	values     map[string]float64
	properties map[string]any
}

// New creates a Recorder for the given CloudWatch namespace. The Lambda
// function name, when available, becomes a default dimension.
func New(namespace string) *Recorder {
	r := &Recorder{
		namespace:  namespace,
		dimensions: make(map[string]string),
		values:     make(map[string]float64),
		properties: make(map[string]any),
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		r.dimensions["FunctionName"] = fn
	}
	return r
}

// Dimension adds an indexed, filterable dimension. Keep cardinality low.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named value with a CloudWatch unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.defs = append(r.defs, metricDef{Name: name, Unit: unit})
	r.values[name] = value
	return r
}

// Count records a count metric with value 1.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a searchable non-metric field (no CloudWatch metric cost).
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the EMF document. The Recorder must not be reused after.
func (r *Recorder) Flush() {
	if len(r.defs) == 0 {
		return
	}

	dimensionNames := make([]string, 0, len(r.dimensions))
	doc := make(map[string]any, len(r.dimensions)+len(r.values)+len(r.properties)+1)
	for k, v := range r.dimensions {
		dimensionNames = append(dimensionNames, k)
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	for k, v := range r.properties {
		doc[k] = v
	}

	doc["_aws"] = map[string]any{
		"Timestamp": time.Now().UnixMilli(),
		"CloudWatchMetrics": []map[string]any{{
			"Namespace":  r.namespace,
			"Dimensions": [][]string{dimensionNames},
			"Metrics":    r.defs,
		}},
	}

	line, err := json.Marshal(doc)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to serialize EMF document")
		return
	}
	out.Write(append(line, '\n'))
}

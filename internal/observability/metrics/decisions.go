package metrics

import (
	"time"

	"github.com/target/mmk-cdn-authorizer/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultApproved = "approved"
	ResultDenied   = "denied"
	ResultError    = "error"
)

// DecisionMetric captures one authorizer invocation for metric emission.
type DecisionMetric struct {
	Result   string
	Stage    string
	Code     string
	Provider string
	Duration time.Duration
}

// EmitDecision emits the standard per-invocation counter and timing.
func EmitDecision(sink statsd.Sink, in DecisionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"result": in.Result}
	if in.Provider != "" {
		tags["provider"] = in.Provider
	}
	if in.Result == ResultError || in.Result == ResultDenied {
		if in.Stage != "" {
			tags["stage"] = in.Stage
		}
		if in.Code != "" {
			tags["code"] = in.Code
		}
	}

	sink.Count("authorizer.decision", 1, tags)

	if in.Duration > 0 {
		sink.Timing("authorizer.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

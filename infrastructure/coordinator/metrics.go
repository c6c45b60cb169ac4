package coordinator

import "time"

// Metrics tracks manager throughput.
type Metrics struct {
	// Requested counts accepted requests, including ones later superseded.
	Requested int64 `json:"requested"`
	// Completed counts searches that produced a plan.
	Completed int64 `json:"completed"`
	// Failed counts searches that ended without a plan.
	Failed int64 `json:"failed"`
	// Dropped counts requests discarded because the target became invalid
	// or the manager stopped.
	Dropped int64 `json:"dropped"`
	// Superseded counts requests replaced by a newer one from the same agent.
	Superseded int64 `json:"superseded"`
	// Rejected counts requests refused because the queue was full.
	Rejected int64 `json:"rejected"`
	// QueueDepth is the number of requests waiting.
	QueueDepth int `json:"queue_depth"`
	// TotalDuration is the time spent in searches.
	TotalDuration time.Duration `json:"total_duration_ns"`
}

// AverageSearchDuration returns the mean search duration.
func (m Metrics) AverageSearchDuration() time.Duration {
	total := m.Completed + m.Failed
	if total == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(total)
}

// SuccessRate returns the fraction of searches that found a plan.
func (m Metrics) SuccessRate() float64 {
	total := m.Completed + m.Failed
	if total == 0 {
		return 0
	}
	return float64(m.Completed) / float64(total)
}

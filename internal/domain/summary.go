package domain

// DeliverySummary reports the outcome of one fan-out. Partial failure is
// a normal outcome, not an error: the broadcast call succeeds even when
// every individual delivery failed.
type DeliverySummary struct {
	BroadcastID string `json:"broadcast_id"`
	Total       int    `json:"total"`
	Attempted   int    `json:"attempted"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	Evicted     int    `json:"evicted"`
}

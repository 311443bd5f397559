package domain

// Classification partitions a commit set into immediate and batch.
// It is produced once per webhook or digest invocation and consumed
// immediately; it is never persisted.
type Classification struct {
	Immediate []Commit `json:"immediate"`
	Batch     []Commit `json:"batch"`
	Reasoning string   `json:"reasoning"`
}

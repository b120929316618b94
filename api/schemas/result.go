package schemas

// ExecutionStatus is the outcome state of one gap execution.
type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusError   ExecutionStatus = "error"
)

// ExecutionResult is the uniform envelope returned for every gap execution
// attempt. Exactly one is produced per attempt, success or not; the resolver
// never lets an error escape as anything else.
type ExecutionResult struct {
	GapID         string          `json:"gap_id"`
	Status        ExecutionStatus `json:"status"`
	ResolvedQuery string          `json:"resolved_query"`
	Data          interface{}     `json:"data,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// OK reports whether the execution succeeded.
func (r ExecutionResult) OK() bool {
	return r.Status == StatusSuccess
}

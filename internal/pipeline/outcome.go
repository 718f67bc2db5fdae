package pipeline

// OutcomeKind tags the terminal state of a pipeline run.
type OutcomeKind string

const (
	// OutcomeSubmitted: broadcast accepted, confirmation not awaited.
	OutcomeSubmitted OutcomeKind = "submitted"
	// OutcomeRejectedAtSubmit: the masternode refused the transaction;
	// nothing was recorded on chain.
	OutcomeRejectedAtSubmit OutcomeKind = "rejected_at_submit"
	// OutcomeConfirmed: the chain executed the transaction successfully.
	OutcomeConfirmed OutcomeKind = "confirmed"
	// OutcomeFailed: the transaction reached the chain but did not succeed,
	// or its receipt never arrived before the deadline.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the single terminal result of one pipeline run. TxHash is set
// for every kind except RejectedAtSubmit; Reason is set for the two failure
// kinds. A Failed outcome with Reason "timeout" means the transaction state
// is unknown, not that it was rejected.
type Outcome struct {
	RunID        string      `json:"run_id"`
	Kind         OutcomeKind `json:"kind"`
	TxHash       string      `json:"tx_hash,omitempty"`
	ExplorerURL  string      `json:"explorer_url,omitempty"`
	Result       string      `json:"result,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	ApprovalHash string      `json:"approval_hash,omitempty"`
}

// Ok reports whether the run ended in a non-failure state.
func (o Outcome) Ok() bool {
	return o.Kind == OutcomeSubmitted || o.Kind == OutcomeConfirmed
}

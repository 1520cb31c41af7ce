package core

import "errors"

// Sentinel errors for structurally invalid input. Connector-level failures are never errors.
var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnknownDomain   = errors.New("unknown domain")
	ErrMalformedDomain = errors.New("malformed domain")
	ErrDuplicateID     = errors.New("duplicate id")
)

// FailureReason is the reason code attached to a failed connector.
type FailureReason string

const (
	NoTargetAvailable    FailureReason = "no_target"
	NoPathFound          FailureReason = "no_path"
	AllCandidatesBlocked FailureReason = "all_blocked"
	CapacityExceeded     FailureReason = "capacity_exceeded"
	Timeout              FailureReason = "timeout"
	UnknownDomain        FailureReason = "unknown_domain"
	MalformedDomain      FailureReason = "malformed_domain"
)

// FailedConnector records a connector that could not be routed.
type FailedConnector struct {
	Connector ConnectorInfo
	Reason    FailureReason
	Detail    string
}

// ConnectorState is a step of the per-connector routing state machine.
type ConnectorState string

const (
	StatePending        ConnectorState = "PENDING"
	StateTargetSelected ConnectorState = "TARGET_SELECTED"
	StatePathFound      ConnectorState = "PATH_FOUND"
	StateCommitted      ConnectorState = "COMMITTED"
	StateFailed         ConnectorState = "FAILED"
)

// Transition records one state change of a connector.
type Transition struct {
	ConnectorID string
	From, To    ConnectorState
	TargetID    string
}

// Stats aggregates counters for one routing pass.
type Stats struct {
	Attempted  int
	Committed  int
	Failed     int
	Retries    int
	Expansions int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Attempted += o.Attempted
	s.Committed += o.Committed
	s.Failed += o.Failed
	s.Retries += o.Retries
	s.Expansions += o.Expansions
}

// RoutingResult is the outcome of one zone/trade routing pass.
type RoutingResult struct {
	Zone        string
	Trade       SystemType
	Routes      []Route
	Failed      []FailedConnector
	Transitions []Transition
	Stats       Stats
}

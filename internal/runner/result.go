package runner

// Kind is the closed classification of operation outcomes. Callers that need
// programmatic handling switch on Kind; the Message stays the human-readable
// payload shown in the UI.
type Kind int

const (
	// KindOK marks a successful invocation.
	KindOK Kind = iota
	// KindNotFound marks a missing script or binary, detected before spawn.
	KindNotFound
	// KindAuthCancelled marks a cancelled or failed elevation prompt.
	// The UI must not retry this automatically.
	KindAuthCancelled
	// KindTimeout marks an invocation killed by its deadline.
	KindTimeout
	// KindCommandFailed marks any other non-zero exit.
	KindCommandFailed
	// KindPrecondition marks a verb rejected before any subprocess was
	// spawned (service not installed, no OS definition, invalid input).
	KindPrecondition
	// KindLoadError marks a plugin that failed to instantiate.
	KindLoadError
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindAuthCancelled:
		return "auth_cancelled"
	case KindTimeout:
		return "timeout"
	case KindCommandFailed:
		return "command_failed"
	case KindPrecondition:
		return "precondition"
	case KindLoadError:
		return "load_error"
	default:
		return "unknown"
	}
}

// Sentinel messages. These exact strings are part of the contract with
// callers and tests; do not reword them.
const (
	MsgSuccess       = "Operation completed successfully"
	MsgTimeout       = "Operation timed out"
	MsgAuthCancelled = "Authentication cancelled or failed"
	MsgUnknownError  = "Unknown error"
)

// Result is the flattened (success, message) outcome every lifecycle verb
// returns. Expected failures travel as Results, never as Go errors.
type Result struct {
	OK      bool
	Kind    Kind
	Message string
}

// Success wraps a successful outcome. An empty message becomes MsgSuccess.
func Success(message string) Result {
	if message == "" {
		message = MsgSuccess
	}
	return Result{OK: true, Kind: KindOK, Message: message}
}

// Failure wraps a failed outcome with its classification.
func Failure(kind Kind, message string) Result {
	if message == "" {
		message = MsgUnknownError
	}
	return Result{OK: false, Kind: kind, Message: message}
}

// Precondition wraps a failure detected before any subprocess was spawned.
func Precondition(message string) Result {
	return Failure(KindPrecondition, message)
}

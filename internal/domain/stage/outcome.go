package stage

// AcquisitionOutcome records how the stage directory was populated.
type AcquisitionOutcome int

const (
	// OutcomeDeferred means nothing was populated; a remote build server owns acquisition.
	OutcomeDeferred AcquisitionOutcome = iota
	// OutcomeDelegated means an unpack worker populated the stage.
	OutcomeDelegated
	// OutcomeCopied means a local distribution was copied into the stage.
	OutcomeCopied
)

// String returns the lowercase outcome name used in logs and reports.
func (o AcquisitionOutcome) String() string {
	switch o {
	case OutcomeDeferred:
		return "deferred"
	case OutcomeDelegated:
		return "delegated"
	case OutcomeCopied:
		return "copied"
	default:
		return "unknown"
	}
}

// NeedsFullCleanup is true only for a local copy; workers already produce a minimal stage.
func (o AcquisitionOutcome) NeedsFullCleanup() bool {
	return o == OutcomeCopied
}

// CleanupStatus classifies a best-effort filesystem action.
type CleanupStatus int

const (
	// CleanupSucceeded means the action changed the filesystem.
	CleanupSucceeded CleanupStatus = iota
	// CleanupNotApplicable means the target did not exist.
	CleanupNotApplicable
	// CleanupFailed means an unexpected error; logged, never fatal.
	CleanupFailed
)

// String returns the lowercase status name.
func (s CleanupStatus) String() string {
	switch s {
	case CleanupSucceeded:
		return "succeeded"
	case CleanupNotApplicable:
		return "not-applicable"
	case CleanupFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CleanupResult is the outcome of one best-effort action.
type CleanupResult struct {
	// Action is a short name such as "remove-default-app" or "rename-license".
	Action string
	// Path is the file the action targeted.
	Path string
	// Status classifies the outcome.
	Status CleanupStatus
	// Err is set only when Status is CleanupFailed.
	Err error
}

package reconcile

// Phase is where an owner engine is in the reconciliation cycle. Diverged
// and Replaying only last for the duration of one reconcile pass.
type Phase int

const (
	Predicting Phase = iota
	Diverged
	Replaying
)

func (p Phase) String() string {
	switch p {
	case Predicting:
		return "predicting"
	case Diverged:
		return "diverged"
	case Replaying:
		return "replaying"
	}
	return "unknown"
}

// Stats counts how often each non-fatal condition occurred.
type Stats struct {
	Steps             int
	Replays           int
	ReplayedCommands  int
	Placeholders      int
	LeadTicks         int
	StaleCommands     int
	DuplicateCommands int
	FutureCommands    int
	StaleSnapshots    int
	SendErrors        int
}

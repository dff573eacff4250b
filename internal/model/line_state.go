package model

// LineState is the lifecycle state of a line.
type LineState string

const (
	LineStateDraft            LineState = "draft"
	LineStatePatternSelected  LineState = "pattern_selected"
	LineStateMachinesAssigned LineState = "machines_assigned"
	LineStateConfigured       LineState = "configured"
	LineStateRunning          LineState = "running"
	LineStateStopped          LineState = "stopped"
)

// configRank orders the configuration states. Running and Stopped sit outside
// the configuration sequence and rank -1.
func (s LineState) configRank() int {
	switch s {
	case LineStateDraft:
		return 0
	case LineStatePatternSelected:
		return 1
	case LineStateMachinesAssigned:
		return 2
	case LineStateConfigured:
		return 3
	}
	return -1
}

// Editable reports whether pattern, assignment and layout edits are allowed.
func (l *Line) Editable() bool {
	return l.State != LineStateRunning
}

// CanStart reports whether the line may enter Running.
func (l *Line) CanStart() bool {
	return l.State == LineStateConfigured || l.State == LineStateStopped
}

// CanStop reports whether the line may leave Running.
func (l *Line) CanStop() bool {
	return l.State == LineStateRunning
}

// Reconfigure is called on every structural edit. A stopped line re-enters the
// configuration sequence as Configured.
func (l *Line) Reconfigure() {
	if l.State == LineStateStopped {
		l.State = LineStateConfigured
	}
}

// Advance moves the line forward to the given configuration state. It never
// moves backwards.
func (l *Line) Advance(to LineState) {
	if to.configRank() < 0 || l.State.configRank() < 0 {
		return
	}
	if to.configRank() > l.State.configRank() {
		l.State = to
	}
}

// Regress moves the line back to the given configuration state when it is
// currently further along.
func (l *Line) Regress(to LineState) {
	if to.configRank() < 0 || l.State.configRank() < 0 {
		return
	}
	if l.State.configRank() > to.configRank() {
		l.State = to
	}
}

package bot

import "sync"

// FlowState tracks which users are inside a multi-step interaction (for
// example a guided category setup). While a flow is active the free-text
// pipeline stays out of the way so flow answers are not misread as
// transactions or questions.
type FlowState struct {
	mu     sync.Mutex
	active map[int64]string
}

// NewFlowState creates an empty flow tracker.
func NewFlowState() *FlowState {
	return &FlowState{active: make(map[int64]string)}
}

// Enter marks the user as inside the named flow, replacing any previous one.
func (f *FlowState) Enter(userID int64, flow string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[userID] = flow
}

// Exit clears the user's active flow.
func (f *FlowState) Exit(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, userID)
}

// Active returns the user's current flow name, if any.
func (f *FlowState) Active(userID int64) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flow, ok := f.active[userID]
	return flow, ok
}

package services

import "sync"

// ConversationGate decides whether the bot may answer a conversation.
//
// The gate is the conjunction of two orthogonal flags: a global pause
// and a per-conversation pause set. Both live only in memory; a process
// restart resets every conversation to active. That is a stated
// limitation of the system, not a bug.
//
// Reads happen on every inbound message and writes only on admin
// commands, so a single RWMutex over both fields is sufficient.
type ConversationGate struct {
	mu             sync.RWMutex
	globallyPaused bool
	paused         map[string]struct{}
}

// NewConversationGate creates a gate with everything active.
func NewConversationGate() *ConversationGate {
	return &ConversationGate{paused: make(map[string]struct{})}
}

// PauseAll pauses the bot for every conversation. Per-conversation
// pauses are left untouched.
func (g *ConversationGate) PauseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.globallyPaused = true
}

// ResumeAll resumes the bot globally AND clears every per-conversation
// pause. Resume-all is a full reset, not just the inverse of PauseAll.
func (g *ConversationGate) ResumeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.globallyPaused = false
	g.paused = make(map[string]struct{})
}

// PauseConversation pauses one conversation. Ids compare exactly,
// case-sensitively.
func (g *ConversationGate) PauseConversation(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused[id] = struct{}{}
}

// ResumeConversation resumes one conversation. Resuming a conversation
// that was never paused is a no-op, not an error.
func (g *ConversationGate) ResumeConversation(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.paused, id)
}

// ShouldRespond reports whether the bot may reply to the conversation:
// not globally paused and not individually paused.
func (g *ConversationGate) ShouldRespond(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.globallyPaused {
		return false
	}
	_, paused := g.paused[id]
	return !paused
}

// GloballyPaused reports the global flag on its own.
func (g *ConversationGate) GloballyPaused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.globallyPaused
}

package chat

import (
	"context"
	"errors"
	"sync"
)

// scriptedGenerator returns queued responses in order, repeating the last one
// when the queue runs dry. A non-nil err wins over the queue.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", errors.New("scriptedGenerator: no responses queued")
	}
	resp := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return resp, nil
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *scriptedGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// memStore is an in-memory Store that also counts writes.
type memStore struct {
	mu           sync.Mutex
	sessions     map[string]*ConversationState
	summaries    map[string]SessionSummary
	sessionSaves int
	summarySaves int
	failSaves    bool
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[string]*ConversationState),
		summaries: make(map[string]SessionSummary),
	}
}

func (s *memStore) SaveSession(state *ConversationState) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return "", errors.New("memStore: save failed")
	}
	s.sessionSaves++
	s.sessions[state.SessionID] = state
	return "mem://" + state.SessionID, nil
}

func (s *memStore) LoadSession(sessionID string) (*ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sessionID], nil
}

func (s *memStore) SaveSummary(sessionID string, summary SessionSummary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return "", errors.New("memStore: save failed")
	}
	s.summarySaves++
	s.summaries[sessionID] = summary
	return "mem://" + sessionID + "_summary", nil
}

// mapRegistry is a plain map Registry for orchestrator tests.
type mapRegistry struct {
	mu     sync.Mutex
	states map[string]*ConversationState
}

func newMapRegistry() *mapRegistry {
	return &mapRegistry{states: make(map[string]*ConversationState)}
}

func (r *mapRegistry) Get(sessionID string) (*ConversationState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[sessionID]
	return s, ok
}

func (r *mapRegistry) Put(state *ConversationState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.SessionID] = state
}

const validAnalysisJSON = `{"is_ambiguous": false, "rewritten_query": "", "needed_context_from_memory": [], "clarifying_questions": [], "confidence_score": 0.9}`

const ambiguousAnalysisJSON = `{"is_ambiguous": true, "rewritten_query": "what item is too expensive", "needed_context_from_memory": [], "clarifying_questions": ["What is too expensive?"], "confidence_score": 0.4}`

const validSummaryJSON = `{"user_profile": {"preferences": ["window seats"], "constraints": [], "interests": ["travel"]}, "key_facts": ["books a flight in May"], "decisions": ["fly via Hanoi"], "open_questions": [], "todos": ["compare fares"]}`

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Registry holds the live ConversationState for active sessions. It is a
// cache in front of the Store: a miss means the session is either on disk or
// unknown.
type Registry interface {
	Get(sessionID string) (*ConversationState, bool)
	Put(state *ConversationState)
}

// TranscriptRecord is one row of a bulk-imported conversation.
type TranscriptRecord struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnResult is what a completed turn hands back to the front-end: the full
// history view and a one-line status summary.
type TurnResult struct {
	History []Message
	Reply   string
	Status  string
}

// Orchestrator is the central control loop. It receives each inbound user
// message, decides from the pending-clarification state whether to treat it
// as a fresh query or a clarification answer, drives the query understander
// and session manager, and decides whether to emit clarifying questions or a
// real answer.
//
// Each session is processed strictly sequentially: a per-session lock makes
// one turn fully complete, including any triggered summarization, before the
// next may begin. Turns on different sessions may run concurrently.
type Orchestrator struct {
	sessions     Registry
	store        Store
	manager      *SessionManager
	understander *QueryUnderstander
	gen          Generator
	log          *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOrchestrator wires the orchestrator over its collaborators. A nil logger
// selects slog.Default().
func NewOrchestrator(sessions Registry, store Store, manager *SessionManager, understander *QueryUnderstander, gen Generator, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		sessions:     sessions,
		store:        store,
		manager:      manager,
		understander: understander,
		gen:          gen,
		log:          log,
		locks:        make(map[string]*sync.Mutex),
	}
}

func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[sessionID] = l
	}
	return l
}

// NewSession creates and persists an empty session and returns its id.
func (o *Orchestrator) NewSession() (string, error) {
	state := NewConversationState(uuid.NewString())
	if _, err := o.store.SaveSession(state); err != nil {
		return "", fmt.Errorf("save new session: %w", err)
	}
	o.sessions.Put(state)
	o.log.Info("new session", "session_id", state.SessionID)
	return state.SessionID, nil
}

// loadState resolves a session id to its live state, falling back to disk when
// the registry has evicted it.
func (o *Orchestrator) loadState(sessionID string) (*ConversationState, error) {
	if state, ok := o.sessions.Get(sessionID); ok {
		return state, nil
	}
	state, err := o.store.LoadSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if state == nil {
		return nil, fmt.Errorf("unknown session: %s", sessionID)
	}
	o.sessions.Put(state)
	return state, nil
}

// SubmitMessage runs one full turn for the session and returns the updated
// history view plus a status summary. The turn, including any triggered
// summarization and generator invocation, completes before the method
// returns; persistence failures surface as errors rather than being lost.
func (o *Orchestrator) SubmitMessage(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty message")
	}

	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := o.loadState(sessionID)
	if err != nil {
		return nil, err
	}

	var analysis QueryAnalysis
	if state.AwaitingClarification {
		originalQuery := state.PendingOriginalQuery
		state.AwaitingClarification = false
		state.PendingClarifyingQuestions = []string{}
		state.PendingOriginalQuery = ""

		if err := o.manager.AppendMessage(ctx, state, RoleUser, text); err != nil {
			return nil, err
		}

		combined := fmt.Sprintf("Original question: %s\n\nClarification/feedback: %s", originalQuery, text)
		o.log.Info("clarification received", "session_id", sessionID)
		analysis = o.understander.UnderstandQuery(ctx, combined, recentWindow(state.Messages), state.CurrentSummary)
	} else {
		if err := o.manager.AppendMessage(ctx, state, RoleUser, text); err != nil {
			return nil, err
		}
		analysis = o.understander.UnderstandQuery(ctx, text, recentWindow(state.Messages), state.CurrentSummary)

		if analysis.IsAmbiguous && len(analysis.ClarifyingQuestions) > 0 {
			return o.askForClarification(ctx, state, text, analysis)
		}
	}

	return o.answer(ctx, state, text, analysis)
}

// askForClarification suspends answer generation: it records the pending
// query and questions, appends the formatted clarifying message as the
// assistant's turn, and returns without invoking the answer generator.
func (o *Orchestrator) askForClarification(ctx context.Context, state *ConversationState, userMessage string, analysis QueryAnalysis) (*TurnResult, error) {
	o.log.Info("query ambiguous, asking for clarification",
		"session_id", state.SessionID, "questions", len(analysis.ClarifyingQuestions))

	state.AwaitingClarification = true
	state.PendingClarifyingQuestions = analysis.ClarifyingQuestions
	state.PendingOriginalQuery = userMessage

	reply := buildClarifyingMessage(analysis.ClarifyingQuestions, userMessage)
	if err := o.manager.AppendMessage(ctx, state, RoleAssistant, reply); err != nil {
		return nil, err
	}
	if err := o.persist(state); err != nil {
		return nil, err
	}

	status := o.statusLine(state, "Status: Awaiting clarification")
	return &TurnResult{History: historyView(state), Reply: reply, Status: status}, nil
}

// answer generates the assistant's reply from the augmented context. A
// generator failure becomes an in-band error reply; the conversation still
// advances normally.
func (o *Orchestrator) answer(ctx context.Context, state *ConversationState, userMessage string, analysis QueryAnalysis) (*TurnResult, error) {
	prompt := buildAnswerPrompt(analysis.FinalAugmentedContext, state.Messages, userMessage)

	reply, err := o.gen.Generate(ctx, prompt)
	if err != nil {
		o.log.Error("answer generation failed", "session_id", state.SessionID, "error", err)
		reply = fmt.Sprintf("Error generating response: %v", err)
	}

	if err := o.manager.AppendMessage(ctx, state, RoleAssistant, reply); err != nil {
		return nil, err
	}
	if err := o.persist(state); err != nil {
		return nil, err
	}

	var extra []string
	if analysis.IsAmbiguous && !state.AwaitingClarification {
		extra = append(extra, "Query was ambiguous (clarified & responded)")
	}
	status := o.statusLine(state, extra...)
	return &TurnResult{History: historyView(state), Reply: reply, Status: status}, nil
}

// LoadTranscript bulk-imports a pre-existing conversation. The session's
// messages and summary are reset, then every record goes through the same
// append path as interactive use, so summarization triggers identically.
func (o *Orchestrator) LoadTranscript(ctx context.Context, sessionID string, records []TranscriptRecord) (string, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := o.loadState(sessionID)
	if err != nil {
		return "", err
	}

	state.Messages = []Message{}
	state.CurrentSummary = nil
	state.TotalTokens = 0
	state.AwaitingClarification = false
	state.PendingClarifyingQuestions = []string{}
	state.PendingOriginalQuery = ""

	count := 0
	for _, r := range records {
		role := r.Role
		if role != RoleAssistant {
			role = RoleUser
		}
		if err := o.manager.AppendMessage(ctx, state, role, r.Content); err != nil {
			return "", err
		}
		count++
	}

	if err := o.persist(state); err != nil {
		return "", err
	}

	status := fmt.Sprintf("Loaded %d messages. Tokens: ~%d.", count, state.TotalTokens)
	if state.CurrentSummary != nil {
		status += " Summarization was triggered."
	}
	return status, nil
}

func (o *Orchestrator) persist(state *ConversationState) error {
	if _, err := o.store.SaveSession(state); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	o.sessions.Put(state)
	return nil
}

func (o *Orchestrator) statusLine(state *ConversationState, extra ...string) string {
	parts := []string{
		fmt.Sprintf("Session: %.8s...", state.SessionID),
		fmt.Sprintf("Messages: %d", len(state.Messages)),
		fmt.Sprintf("Tokens: ~%d", state.TotalTokens),
	}
	parts = append(parts, extra...)
	if state.CurrentSummary != nil {
		parts = append(parts, "Summary: active")
	}
	return strings.Join(parts, " | ")
}

// recentWindow is the slice of trailing messages handed to query analysis.
func recentWindow(messages []Message) []Message {
	const window = 10
	if len(messages) > window {
		return messages[len(messages)-window:]
	}
	return messages
}

func historyView(state *ConversationState) []Message {
	return append([]Message(nil), state.Messages...)
}

package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. Messages are immutable once created
// and only ever appended to a conversation's history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Timestamp is the wall-clock time the message was appended. Optional so
	// imported transcripts without timing information round-trip cleanly.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// UserProfile is the profile portion of a session summary. All three lists
// hold free-text strings extracted by the model and are replaced wholesale on
// each summarization.
type UserProfile struct {
	Preferences []string `json:"preferences"`
	Constraints []string `json:"constraints"`
	Interests   []string `json:"interests"`
}

// MessageRange is an inclusive, 0-indexed range into a session's message list.
type MessageRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// SessionSummary is the compressed view of messages [From, To] at the time of
// summarization. At most one current summary exists per session; a new
// summarization replaces it rather than appending.
type SessionSummary struct {
	UserProfile     UserProfile  `json:"user_profile"`
	KeyFacts        []string     `json:"key_facts"`
	Decisions       []string     `json:"decisions"`
	OpenQuestions   []string     `json:"open_questions"`
	Todos           []string     `json:"todos"`
	SummarizedRange MessageRange `json:"summarized_range"`
}

// QueryAnalysis is the result of the query-understanding pipeline for a single
// query. It is transient: produced per query, consumed by the orchestrator,
// never persisted.
type QueryAnalysis struct {
	OriginalQuery           string
	IsAmbiguous             bool
	RewrittenQuery          string
	NeededContextFromMemory []string
	ClarifyingQuestions     []string

	// FinalAugmentedContext combines the session-memory digest (or the
	// model-selected subset of it) with the recent raw turns; it is the
	// context block fed to answer generation.
	FinalAugmentedContext string

	// ConfidenceScore is the model's self-reported confidence in [0, 1];
	// 0.5 when absent or malformed.
	ConfidenceScore float64
}

// ConversationState is the aggregate root for one session: the full append-only
// transcript, the current summary (if any), derived token accounting, and the
// pending-clarification fields of the orchestrator's state machine.
//
// Invariants:
//   - Messages grows monotonically; entries are never removed or edited.
//   - TotalTokens is recomputed after any mutation to Messages or
//     CurrentSummary, never hand-set.
//   - AwaitingClarification implies PendingClarifyingQuestions is non-empty
//     and PendingOriginalQuery is set; when false both are cleared.
type ConversationState struct {
	SessionID      string          `json:"session_id"`
	Messages       []Message       `json:"messages"`
	CurrentSummary *SessionSummary `json:"current_summary,omitempty"`
	TotalTokens    int             `json:"total_tokens"`

	AwaitingClarification      bool     `json:"awaiting_clarification"`
	PendingClarifyingQuestions []string `json:"pending_clarifying_questions"`
	PendingOriginalQuery       string   `json:"pending_original_query,omitempty"`
}

// NewConversationState returns an empty state for the given session id.
func NewConversationState(sessionID string) *ConversationState {
	return &ConversationState{
		SessionID:                  sessionID,
		Messages:                   []Message{},
		PendingClarifyingQuestions: []string{},
	}
}

// normalizeStringList maps an untyped model-output value onto a string list
// with tolerant rules: nil becomes empty, a single non-empty string becomes a
// singleton, a list keeps its string elements, anything else becomes empty.
// The mapping is idempotent: feeding its output back yields the same list.
func normalizeStringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case string:
		if val == "" {
			return []string{}
		}
		return []string{val}
	case []string:
		out := make([]string, 0, len(val))
		for _, s := range val {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// summaryFromModelOutput maps an untyped model response onto a SessionSummary
// covering [from, to]. All "the model misbehaved" handling for summarization
// lives here: missing or mis-typed fields degrade to empty lists.
func summaryFromModelOutput(data map[string]any, from, to int) SessionSummary {
	profile := UserProfile{
		Preferences: []string{},
		Constraints: []string{},
		Interests:   []string{},
	}
	if raw, ok := data["user_profile"].(map[string]any); ok {
		profile.Preferences = normalizeStringList(raw["preferences"])
		profile.Constraints = normalizeStringList(raw["constraints"])
		profile.Interests = normalizeStringList(raw["interests"])
	}

	return SessionSummary{
		UserProfile:     profile,
		KeyFacts:        normalizeStringList(data["key_facts"]),
		Decisions:       normalizeStringList(data["decisions"]),
		OpenQuestions:   normalizeStringList(data["open_questions"]),
		Todos:           normalizeStringList(data["todos"]),
		SummarizedRange: MessageRange{From: from, To: to},
	}
}

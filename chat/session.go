package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTokenThreshold is the effective-cost ceiling above which the
// transcript is compressed into a structured summary.
const DefaultTokenThreshold = 3000

// Store is the persistence boundary for conversation state and summaries.
// Save operations return the storage location they wrote to. LoadSession
// returns (nil, nil) when no record exists for the id.
type Store interface {
	SaveSession(state *ConversationState) (string, error)
	LoadSession(sessionID string) (*ConversationState, error)
	SaveSummary(sessionID string, summary SessionSummary) (string, error)
}

// SessionManager owns the decision of when to compress a transcript and
// performs the compression. It mutates the ConversationState handed to it;
// callers must not touch the state concurrently (one turn at a time per
// session).
type SessionManager struct {
	gen       Generator
	store     Store
	threshold int
	log       *slog.Logger
	now       func() time.Time
}

// NewSessionManager wires a manager over a generator and store. A threshold
// of 0 or less selects DefaultTokenThreshold; a nil logger selects
// slog.Default().
func NewSessionManager(gen Generator, store Store, threshold int, log *slog.Logger) *SessionManager {
	if threshold <= 0 {
		threshold = DefaultTokenThreshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &SessionManager{
		gen:       gen,
		store:     store,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// Threshold returns the configured trigger threshold.
func (m *SessionManager) Threshold() int { return m.threshold }

// summaryCostText is the serialized representation of a summary used for cost
// accounting: the retrieval-heavy fields only, not the whole record.
func summaryCostText(s *SessionSummary) string {
	return fmt.Sprintf("%v%v%v%v",
		s.KeyFacts, s.Decisions, s.UserProfile.Preferences, s.UserProfile.Interests)
}

// EffectiveCost is the token cost the trigger accounting "sees": the full
// message cost when no summary exists, otherwise the summary's own cost plus
// the cost of only the messages after the summarized range. The full history
// stays in state for display and audit either way.
func (m *SessionManager) EffectiveCost(state *ConversationState) int {
	if state.CurrentSummary == nil {
		return CostOfMessages(state.Messages)
	}
	s := state.CurrentSummary
	tail := state.Messages
	if next := s.SummarizedRange.To + 1; next <= len(tail) {
		tail = tail[next:]
	}
	return EstimateTokens(summaryCostText(s)) + CostOfMessages(tail)
}

// AppendMessage appends a message with the current timestamp, recomputes the
// effective cost, and synchronously summarizes when the threshold is crossed.
// Exactly one summarization attempt happens per call, even if the cost was
// already above threshold before the append. The returned error reports
// persistence failures only; summarization parse failures are logged and the
// next triggering turn retries.
func (m *SessionManager) AppendMessage(ctx context.Context, state *ConversationState, role Role, content string) error {
	ts := m.now()
	state.Messages = append(state.Messages, Message{Role: role, Content: content, Timestamp: &ts})

	effective := m.EffectiveCost(state)
	state.TotalTokens = effective

	if effective > m.threshold {
		m.log.Info("token threshold exceeded, summarizing",
			"session_id", state.SessionID, "effective", effective, "threshold", m.threshold)
		if _, err := m.TriggerSummarization(ctx, state); err != nil {
			return err
		}
		state.TotalTokens = m.EffectiveCost(state)
	}
	return nil
}

// TriggerSummarization compresses the entire history into a new summary,
// folding the previous summary's content into the prompt as prior context.
// It is a no-op on an empty transcript. On a generation or parse failure the
// current summary is left unchanged and (nil, nil) is returned; the caller
// proceeds as if summarization had not happened. On success the new summary
// replaces the old one and both the summary and the full state are persisted;
// persistence failures are returned rather than swallowed.
func (m *SessionManager) TriggerSummarization(ctx context.Context, state *ConversationState) (*SessionSummary, error) {
	if len(state.Messages) == 0 {
		return nil, nil
	}

	from := 0
	to := len(state.Messages) - 1
	prompt := buildSummarizationPrompt(state.Messages, state.CurrentSummary)

	data, err := GenerateJSON(ctx, m.gen, prompt)
	if err != nil {
		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			m.log.Warn("summarization response unparseable, keeping previous summary",
				"session_id", state.SessionID, "reason", malformed.Reason)
		} else {
			m.log.Warn("summarization generation failed, keeping previous summary",
				"session_id", state.SessionID, "error", err)
		}
		return nil, nil
	}

	summary := summaryFromModelOutput(data, from, to)
	state.CurrentSummary = &summary

	if _, err := m.store.SaveSummary(state.SessionID, summary); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	if _, err := m.store.SaveSession(state); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.log.Info("summary extracted",
		"session_id", state.SessionID,
		"key_facts", len(summary.KeyFacts),
		"decisions", len(summary.Decisions),
		"range_from", from, "range_to", to,
		"messages_kept", len(state.Messages))
	return &summary, nil
}

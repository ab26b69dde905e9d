package storage

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat"
)

// DefaultSessionTTL is how long an idle session stays live in memory before
// being evicted; evicted sessions are reloaded from the file store on the
// next turn.
const DefaultSessionTTL = 30 * time.Minute

// Registry keeps the live ConversationState for active sessions in a TTL
// cache. Every completed turn re-Puts the state, refreshing its expiration.
type Registry struct {
	cache *gocache.Cache
}

// NewRegistry creates a registry with the given idle TTL. A ttl of 0 or less
// selects DefaultSessionTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{cache: gocache.New(ttl, 2*ttl)}
}

func (r *Registry) Get(sessionID string) (*chat.ConversationState, bool) {
	v, ok := r.cache.Get(sessionID)
	if !ok {
		return nil, false
	}
	state, ok := v.(*chat.ConversationState)
	return state, ok
}

func (r *Registry) Put(state *chat.ConversationState) {
	if state == nil || state.SessionID == "" {
		return
	}
	r.cache.Set(state.SessionID, state, gocache.DefaultExpiration)
}

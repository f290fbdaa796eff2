package tracking

import (
	"net/http"

	"github.com/windora/fanstore/pkg/filters"
)

// Tracking publishes behavioral events. Implementations must never block a
// request path, callers fire and forget.
type Tracking interface {
	TrackSession(sessionId int, r *http.Request)
	TrackSearch(sessionId int, state *filters.State, totalHits int)
	TrackClick(sessionId int, productId uint)
	Close() error
}

type BaseEvent struct {
	SessionId int    `json:"session_id"`
	Context   string `json:"context,omitempty"`
	Event     uint16 `json:"event"`
}

type SessionEvent struct {
	*BaseEvent
	UserAgent string `json:"user_agent,omitempty"`
	Ip        string `json:"ip,omitempty"`
	Language  string `json:"language,omitempty"`
}

type SearchEvent struct {
	*BaseEvent
	Query     string `json:"query"`
	TotalHits int    `json:"totalHits"`
}

type ClickEvent struct {
	*BaseEvent
	ProductId uint `json:"productId"`
}

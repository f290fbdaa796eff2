package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SessionTracker is the minimal surface of tracking needed here, avoiding a
// package cycle with the tracking implementations.
type SessionTracker interface {
	TrackSession(sessionId int, r *http.Request)
}

func generateSessionId() int {
	return int(time.Now().UnixNano())
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionId int) {
	http.SetCookie(w, &http.Cookie{
		Name:     "sid",
		Value:    fmt.Sprintf("%d", sessionId),
		Domain:   strings.TrimPrefix(r.Host, "."),
		SameSite: http.SameSiteNoneMode,
		HttpOnly: true,
		MaxAge:   2592000,
		Path:     "/",
	})
}

// HandleSessionCookie returns the request's session id, minting and tracking
// a fresh one when the cookie is absent.
func HandleSessionCookie(trk SessionTracker, w http.ResponseWriter, r *http.Request) int {
	sessionId := generateSessionId()
	c, err := r.Cookie("sid")
	if err != nil {
		if trk != nil {
			go trk.TrackSession(sessionId, r)
		}
		setSessionCookie(w, r, sessionId)
	} else {
		sessionId, err = strconv.Atoi(c.Value)
		if err != nil {
			setSessionCookie(w, r, sessionId)
		}
	}
	return sessionId
}

package common

import (
	"encoding/json"
	"log"
	"net/http"
)

// WriteJson sets the standard response headers and encodes body. Encoding
// errors after the header is out can only be logged.
func WriteJson(w http.ResponseWriter, r *http.Request, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", corsOrigin(r))
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// WriteCachedJson is WriteJson with a shared-cache hint for responses keyed
// on their full query string.
func WriteCachedJson(w http.ResponseWriter, r *http.Request, body any) {
	w.Header().Set("Cache-Control", "public, stale-while-revalidate=120")
	WriteJson(w, r, body)
}

func corsOrigin(r *http.Request) string {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return "*"
	}
	return origin
}

func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusAccepted)
}

// ErrorResponse carries the backend's message verbatim when one exists, a
// generic fallback otherwise.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if message == "" {
		message = "request failed"
	}
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

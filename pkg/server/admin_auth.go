package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/windora/fanstore/pkg/auth"
)

const adminCookieName = "fs-admin"

type ContextValue string

var ContextRole = ContextValue("role")

// GoogleAuth gates the back-office behind Google sign-in. A static api key in
// the Authorization header bypasses the cookie for machine callers.
type GoogleAuth struct {
	tokens       *auth.TokenIssuer
	serverApiKey string
	authConfig   *oauth2.Config
}

func NewGoogleAuth(tokens *auth.TokenIssuer) (*GoogleAuth, error) {
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	callbackUrl := os.Getenv("CALLBACK_URL")
	clientId := os.Getenv("GOOGLE_CLIENT_ID")
	if clientId == "" || clientSecret == "" || callbackUrl == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET or CALLBACK_URL environment variable not set")
	}
	apiKey := os.Getenv("FANSTORE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("FANSTORE_API_KEY environment variable not set")
	}
	authConfig := &oauth2.Config{
		ClientID:     clientId,
		ClientSecret: clientSecret,
		RedirectURL:  callbackUrl,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
	return &GoogleAuth{
		authConfig:   authConfig,
		tokens:       tokens,
		serverApiKey: apiKey,
	}, nil
}

func generateStateOauthCookie() string {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(b)
}

func (ws *GoogleAuth) Login(w http.ResponseWriter, r *http.Request) {
	oauthState := generateStateOauthCookie()
	url := ws.authConfig.AuthCodeURL(oauthState, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (ws *GoogleAuth) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   adminCookieName,
		Value:  "",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusOK)
}

type UserData struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Id            string `json:"id"`
	Picture       string `json:"picture"`
}

func getUserData(token *oauth2.Token) (*UserData, error) {
	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var userData UserData
	if err := json.NewDecoder(resp.Body).Decode(&userData); err != nil {
		return nil, err
	}
	return &userData, nil
}

func (ws *GoogleAuth) AuthCallback(w http.ResponseWriter, r *http.Request) {
	token, err := ws.authConfig.Exchange(context.Background(), r.FormValue("code"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	userData, err := getUserData(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ownToken, err := ws.tokens.CreateToken(userData.Email, userData.Name, "admin")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    ownToken,
		Path:     "/",
		Expires:  time.Now().Add(time.Hour * 24),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	http.Redirect(w, r, "/admin", http.StatusTemporaryRedirect)
}

func (ws *GoogleAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := "anonymous"
		if r.Header.Get("Authorization") == ws.serverApiKey {
			role = "api"
		} else {
			cookie, err := r.Cookie(adminCookieName)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims, err := ws.tokens.ParseToken(cookie.Value)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claimedRole, ok := claims["role"].(string)
			if !ok || claimedRole != "admin" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			role = claimedRole
		}
		ctx := context.WithValue(r.Context(), ContextRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (ws *GoogleAuth) User(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(adminCookieName)
	if err != nil || cookie.Value == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	claims, err := ws.tokens.ParseToken(cookie.Value)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(claims); err != nil {
		log.Printf("error sending user response: %v", err)
	}
}

// MockAuth lets everything through, local development only.
type MockAuth struct{}

func (m *MockAuth) Login(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:  adminCookieName,
		Value: "mock-token",
	})
	w.WriteHeader(http.StatusOK)
}

func (m *MockAuth) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   adminCookieName,
		Value:  "",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusOK)
}

func (m *MockAuth) AuthCallback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin", http.StatusTemporaryRedirect)
}

func (m *MockAuth) User(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"username":"mock-user","name":"Mock User","role":"admin"}`)); err != nil {
		log.Printf("error sending user response: %v", err)
	}
}

func (m *MockAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
	}
}

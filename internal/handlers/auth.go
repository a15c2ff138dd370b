package handlers

import (
	"net/http"
	"strconv"

	"groupchat-backend/internal/hub"
	"groupchat-backend/internal/jwt"

	"github.com/google/uuid"
)

// DevLogin stands in for the external OAuth callback so the API can be used
// without a provider. It is only routed when the config enables it.
func DevLogin(w http.ResponseWriter, r *http.Request) {
	if !devLoginEnabled {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	userID := int64(1)
	if param := r.URL.Query().Get("userID"); param != "" {
		parsed, err := strconv.ParseInt(param, 10, 64)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		userID = parsed
	}

	cookie, err := jwt.Mint(r.URL.Query().Get("rememberMe") == "true", userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	http.SetCookie(w, &cookie)
	respondJSON(w, http.StatusOK, map[string]any{"message": "Logged in", "userID": strconv.FormatInt(userID, 10)})
}

// NewSession hands out the websocket session token.
func NewSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.NewV7()
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	sessionCookie := http.Cookie{
		Name:     "session",
		Value:    sessionID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, &sessionCookie)
}

func HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	sessionCookie, err := r.Cookie("session")
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusUnauthorized, "No session cookie was provided")
		return
	}

	hub.HandleClient(w, r, userID, sessionCookie.Value)
}

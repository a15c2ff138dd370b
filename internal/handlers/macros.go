package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"groupchat-backend/internal/database"
	"groupchat-backend/internal/hub"
	"groupchat-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

// authorization check outcomes, kept apart so each endpoint decides for
// itself whether a 404 would leak existence to non-members
type authzResult int

const (
	authzOK authzResult = iota
	authzNotFound
	authzForbidden
)

func userIDOf(r *http.Request) int64 {
	return r.Context().Value(UserIDKeyType{}).(int64)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		sugar.Error(err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondSuccess(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func checkServerOwner(serverID int64, userID int64) (models.Server, authzResult, error) {
	server, err := database.GetServer(serverID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Server{}, authzNotFound, nil
	} else if err != nil {
		return models.Server{}, authzNotFound, err
	}

	if server.OwnerID != userID {
		return server, authzForbidden, nil
	}
	return server, authzOK, nil
}

func checkServerMember(serverID int64, userID int64) (authzResult, error) {
	isMember, err := database.IsMember(serverID, userID)
	if err != nil {
		return authzForbidden, err
	}

	if !isMember {
		return authzForbidden, nil
	}
	return authzOK, nil
}

// subscribeIfConnected binds the caller's websocket session, when there is
// one, to the topic a list endpoint just served. Callers without a live
// session just get their response.
func subscribeIfConnected(r *http.Request, channelType string, targetID int64) {
	sessionCookie, err := r.Cookie("session")
	if err != nil {
		return
	}

	if _, connected := hub.GetClient(sessionCookie.Value); !connected {
		return
	}

	err = hub.Subscribe(channelType, targetID, sessionCookie.Value)
	if err != nil {
		sugar.Debug(err)
	}
}

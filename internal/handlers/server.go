package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"groupchat-backend/internal/database"
	"groupchat-backend/internal/hub"
	"groupchat-backend/internal/sanitize"
)

func CreateServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	type CreateServerRequest struct {
		Name string `json:"name" validate:"required,max=100"`
		Icon string `json:"icon" validate:"max=500"`
	}

	var request CreateServerRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request.Name = sanitize.Text(strings.TrimSpace(request.Name))
	request.Icon = sanitize.Text(strings.TrimSpace(request.Icon))

	err = validate.Struct(request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid server name")
		return
	}

	server, channel, err := database.CreateServer(request.Name, userID, request.Icon)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	type CreateServerResponse struct {
		ID        int64 `json:"id,string"`
		ChannelID int64 `json:"channelId,string"`
	}

	respondJSON(w, http.StatusCreated, CreateServerResponse{ID: server.ID, ChannelID: channel.ID})
}

func GetServerList(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	servers, err := database.GetServersForUser(userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	for _, server := range servers {
		subscribeIfConnected(r, hub.ChannelTypeServerList, server.ID)
	}

	respondJSON(w, http.StatusOK, servers)
}

func UpdateServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	serverID, ok := pathID(r, "serverID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	type UpdateServerRequest struct {
		Name *string `json:"name"`
		Icon *string `json:"icon"`
	}

	var request UpdateServerRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if request.Name != nil {
		name := sanitize.Text(strings.TrimSpace(*request.Name))
		if name == "" || len(name) > 100 {
			respondError(w, http.StatusBadRequest, "Invalid server name")
			return
		}
		request.Name = &name
	}
	if request.Icon != nil {
		icon := sanitize.Text(strings.TrimSpace(*request.Icon))
		if len(icon) > 500 {
			respondError(w, http.StatusBadRequest, "Invalid server icon")
			return
		}
		request.Icon = &icon
	}

	// a missing server and someone else's server get the same answer here,
	// don't confirm existence to non-owners
	updated, err := database.UpdateServer(serverID, userID, request.Name, request.Icon)
	if err == database.ErrNoChanges {
		respondError(w, http.StatusBadRequest, "No changes")
		return
	} else if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	if !updated {
		respondError(w, http.StatusForbidden, "Forbidden or not found")
		return
	}

	fields := map[string]any{"id": strconv.FormatInt(serverID, 10)}
	if request.Name != nil {
		fields["name"] = *request.Name
	}
	if request.Icon != nil {
		fields["icon"] = *request.Icon
	}

	err = hub.Emit(hub.ServerModified, hub.ChannelTypeServerList, serverID, fields)
	if err != nil {
		sugar.Error(err)
	}

	respondJSON(w, http.StatusOK, fields)
}

func DeleteServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	serverID, ok := pathID(r, "serverID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	deleted, err := database.DeleteServer(serverID, userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	if !deleted {
		sugar.Warnf("User ID [%d] tried to delete server ID [%d] they don't own", userID, serverID)
		respondError(w, http.StatusForbidden, "Forbidden or not found")
		return
	}

	err = hub.Emit(hub.ServerDeleted, hub.ChannelTypeServerList, serverID, map[string]string{"id": strconv.FormatInt(serverID, 10)})
	if err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

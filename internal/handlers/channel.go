package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"groupchat-backend/internal/database"
	"groupchat-backend/internal/hub"
	"groupchat-backend/internal/sanitize"
)

func CreateChannel(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	serverID, ok := pathID(r, "serverID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	_, result, err := checkServerOwner(serverID, userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	switch result {
	case authzNotFound:
		respondError(w, http.StatusNotFound, "Server not found")
		return
	case authzForbidden:
		sugar.Warnf("User ID [%d] tried to create a channel in server ID [%d] they don't own", userID, serverID)
		respondError(w, http.StatusForbidden, "You don't own this server")
		return
	}

	type CreateChannelRequest struct {
		Name string `json:"name" validate:"required,max=100"`
	}

	var request CreateChannelRequest
	err = json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request.Name = sanitize.Text(strings.TrimSpace(request.Name))

	err = validate.Struct(request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid channel name")
		return
	}

	channel, err := database.CreateChannel(serverID, request.Name)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	err = hub.Emit(hub.ChannelCreated, hub.ChannelTypeServer, serverID, channel)
	if err != nil {
		sugar.Error(err)
	}

	respondJSON(w, http.StatusCreated, channel)
}

func GetChannelList(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	serverID, ok := pathID(r, "serverID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	result, err := checkServerMember(serverID, userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if result != authzOK {
		respondError(w, http.StatusForbidden, "Not a member")
		return
	}

	channels, err := database.GetChannelsForServer(serverID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	subscribeIfConnected(r, hub.ChannelTypeServer, serverID)

	respondJSON(w, http.StatusOK, channels)
}

// ReorderChannels assigns positions from the given full permutation of the
// server's channel ids. The whole reassignment is atomic.
func ReorderChannels(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	serverID, ok := pathID(r, "serverID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	_, result, err := checkServerOwner(serverID, userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if result != authzOK {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	type ReorderRequest struct {
		OrderedIDs []string `json:"orderedIds" validate:"required,min=1"`
	}

	var request ReorderRequest
	err = json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = validate.Struct(request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid channel order")
		return
	}

	orderedIDs := make([]int64, 0, len(request.OrderedIDs))
	for _, raw := range request.OrderedIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id == 0 {
			respondError(w, http.StatusBadRequest, "Invalid channel ID in order")
			return
		}
		orderedIDs = append(orderedIDs, id)
	}

	err = database.ReorderChannels(serverID, orderedIDs)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	err = hub.Emit(hub.ChannelsReordered, hub.ChannelTypeServer, serverID, request.OrderedIDs)
	if err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

// resolveOwnedChannel maps a channel id to its row, but only for the owner of
// the parent server. A channel of someone else's server reports forbidden.
func resolveOwnedChannel(w http.ResponseWriter, r *http.Request, userID int64) (int64, int64, bool) {
	channelID, ok := pathID(r, "channelID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid channel ID")
		return 0, 0, false
	}

	channel, err := database.GetChannel(channelID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Channel not found")
		return 0, 0, false
	} else if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return 0, 0, false
	}

	_, result, err := checkServerOwner(channel.ServerID, userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return 0, 0, false
	}
	if result != authzOK {
		respondError(w, http.StatusForbidden, "Forbidden")
		return 0, 0, false
	}

	return channelID, channel.ServerID, true
}

func RenameChannel(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	channelID, serverID, ok := resolveOwnedChannel(w, r, userID)
	if !ok {
		return
	}

	type RenameChannelRequest struct {
		Name string `json:"name" validate:"required,max=100"`
	}

	var request RenameChannelRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request.Name = sanitize.Text(strings.TrimSpace(request.Name))

	err = validate.Struct(request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid channel name")
		return
	}

	_, err = database.UpdateChannel(channelID, request.Name)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	channel, err := database.GetChannel(channelID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	err = hub.Emit(hub.ChannelModified, hub.ChannelTypeServer, serverID, channel)
	if err != nil {
		sugar.Error(err)
	}

	respondJSON(w, http.StatusOK, channel)
}

func DeleteChannel(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	channelID, serverID, ok := resolveOwnedChannel(w, r, userID)
	if !ok {
		return
	}

	_, err := database.DeleteChannel(channelID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	err = hub.Emit(hub.ChannelDeleted, hub.ChannelTypeServer, serverID, map[string]string{"id": strconv.FormatInt(channelID, 10)})
	if err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

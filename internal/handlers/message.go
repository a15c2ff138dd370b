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
	"groupchat-backend/internal/models"
	"groupchat-backend/internal/sanitize"
)

// resolveMemberChannel maps a channel id to its row for members of the parent
// server. Membership is checked before anything about the channel is
// revealed.
func resolveMemberChannel(w http.ResponseWriter, r *http.Request, userID int64) (models.Channel, bool) {
	channelID, ok := pathID(r, "channelID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid channel ID")
		return models.Channel{}, false
	}

	channel, err := database.GetChannel(channelID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Channel not found")
		return models.Channel{}, false
	} else if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return models.Channel{}, false
	}

	result, err := checkServerMember(channel.ServerID, userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return models.Channel{}, false
	}
	if result != authzOK {
		respondError(w, http.StatusForbidden, "Not a member")
		return models.Channel{}, false
	}

	return channel, true
}

func resolveAuthors(r *http.Request, messages []models.Message) {
	for i := range messages {
		identity, err := resolver.Resolve(r.Context(), messages[i].UserID)
		if err != nil {
			sugar.Error(err)
			continue
		}
		messages[i].Author = identity
	}
}

func GetMessageList(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	channel, ok := resolveMemberChannel(w, r, userID)
	if !ok {
		return
	}

	limit := 50
	if param := r.URL.Query().Get("limit"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	var before int64
	if param := r.URL.Query().Get("before"); param != "" {
		parsed, err := strconv.ParseInt(param, 10, 64)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid before cursor")
			return
		}
		before = parsed
	}

	messages, err := database.GetMessages(channel.ID, limit, before)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	resolveAuthors(r, messages)

	subscribeIfConnected(r, hub.ChannelTypeChannel, channel.ID)

	respondJSON(w, http.StatusOK, messages)
}

func CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	channel, ok := resolveMemberChannel(w, r, userID)
	if !ok {
		return
	}

	type CreateMessageRequest struct {
		Content string `json:"content" validate:"required,max=2000"`
	}

	var request CreateMessageRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request.Content = sanitize.Text(strings.TrimSpace(request.Content))

	err = validate.Struct(request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid message content")
		return
	}

	message, err := database.CreateMessage(channel.ID, userID, request.Content)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	identity, err := resolver.Resolve(r.Context(), userID)
	if err != nil {
		sugar.Error(err)
	} else {
		message.Author = identity
	}

	err = hub.Emit(hub.MessageCreated, hub.ChannelTypeChannel, channel.ID, message)
	if err != nil {
		sugar.Error(err)
	}

	respondJSON(w, http.StatusCreated, message)
}

func EditMessage(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	messageID, ok := pathID(r, "messageID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	type EditMessageRequest struct {
		Content string `json:"content" validate:"required,max=2000"`
	}

	var request EditMessageRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request.Content = sanitize.Text(strings.TrimSpace(request.Content))

	err = validate.Struct(request)
	if err != nil {
		sugar.Debug(err)
		respondError(w, http.StatusBadRequest, "Invalid message content")
		return
	}

	// author scoping lives in the statement, a miss means missing or not
	// the author and we don't reveal which
	edited, err := database.EditMessage(messageID, userID, request.Content)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	if !edited {
		respondError(w, http.StatusForbidden, "Forbidden or not found")
		return
	}

	message, err := database.GetMessage(messageID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	identity, err := resolver.Resolve(r.Context(), message.UserID)
	if err != nil {
		sugar.Error(err)
	} else {
		message.Author = identity
	}

	err = hub.Emit(hub.MessageModified, hub.ChannelTypeChannel, message.ChannelID, message)
	if err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

func DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	messageID, ok := pathID(r, "messageID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	message, err := database.GetMessage(messageID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	} else if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	if message.UserID == userID {
		_, err := database.DeleteMessage(messageID, userID)
		if err != nil {
			sugar.Error(err)
			respondError(w, http.StatusInternalServerError, "")
			return
		}
	} else {
		// moderation override, the server owner may delete anyone's message
		channel, err := database.GetChannel(message.ChannelID)
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Channel not found")
			return
		} else if err != nil {
			sugar.Error(err)
			respondError(w, http.StatusInternalServerError, "")
			return
		}

		_, result, err := checkServerOwner(channel.ServerID, userID)
		if err != nil {
			sugar.Error(err)
			respondError(w, http.StatusInternalServerError, "")
			return
		}
		if result != authzOK {
			respondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		_, err = database.DeleteMessageAsOwner(messageID)
		if err != nil {
			sugar.Error(err)
			respondError(w, http.StatusInternalServerError, "")
			return
		}
	}

	err = hub.Emit(hub.MessageDeleted, hub.ChannelTypeChannel, message.ChannelID, map[string]string{"id": strconv.FormatInt(messageID, 10)})
	if err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

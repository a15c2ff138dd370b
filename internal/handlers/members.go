package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"groupchat-backend/internal/database"
	"groupchat-backend/internal/hub"
)

func JoinServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	serverID, ok := pathID(r, "serverID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	_, err := database.GetServer(serverID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Server not found")
		return
	} else if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	err = database.JoinServer(serverID, userID)
	if errors.Is(err, database.ErrAlreadyMember) {
		respondError(w, http.StatusConflict, "Already a member")
		return
	} else if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	err = hub.Emit(hub.MemberJoined, hub.ChannelTypeServer, serverID, map[string]string{"userID": strconv.FormatInt(userID, 10)})
	if err != nil {
		sugar.Error(err)
	}

	respondJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func LeaveServer(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	serverID, ok := pathID(r, "serverID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	server, err := database.GetServer(serverID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Server not found")
		return
	} else if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	if server.OwnerID == userID {
		respondError(w, http.StatusBadRequest, "Owner cannot leave, delete the server instead")
		return
	}

	left, err := database.LeaveServer(serverID, userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	if !left {
		respondError(w, http.StatusNotFound, "Not a member")
		return
	}

	err = hub.Emit(hub.MemberLeft, hub.ChannelTypeServer, serverID, map[string]string{"userID": strconv.FormatInt(userID, 10)})
	if err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

func GetMemberList(w http.ResponseWriter, r *http.Request) {
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

	members, err := database.GetMembers(serverID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	for i := range members {
		identity, err := resolver.Resolve(r.Context(), members[i].UserID)
		if err != nil {
			sugar.Error(err)
			continue
		}
		members[i].Identity = identity
	}

	respondJSON(w, http.StatusOK, members)
}

func RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID := userIDOf(r)

	serverID, ok := pathID(r, "serverID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	targetID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	server, result, err := checkServerOwner(serverID, userID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if result != authzOK {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	if targetID == server.OwnerID {
		respondError(w, http.StatusBadRequest, "Owner cannot be removed")
		return
	}

	removed, err := database.RemoveMember(serverID, targetID)
	if err != nil {
		sugar.Error(err)
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	if !removed {
		respondError(w, http.StatusNotFound, "Not a member")
		return
	}

	err = hub.Emit(hub.MemberRemoved, hub.ChannelTypeServer, serverID, map[string]string{"userID": strconv.FormatInt(targetID, 10)})
	if err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

package database

import (
	"time"

	"groupchat-backend/internal/models"
	"groupchat-backend/internal/snowflake"
)

const maxMessagePage = 50

func CreateMessage(channelID int64, userID int64, content string) (models.Message, error) {
	messageID, err := snowflake.Generate()
	if err != nil {
		return models.Message{}, err
	}

	message := models.Message{
		ID:        messageID,
		ChannelID: channelID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err = db.Exec("INSERT INTO messages (id, channel_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
		message.ID, message.ChannelID, message.UserID, message.Content, message.CreatedAt)
	if err != nil {
		return models.Message{}, err
	}

	return message, nil
}

func GetMessage(id int64) (models.Message, error) {
	var message models.Message
	err := db.QueryRow("SELECT id, channel_id, user_id, content, created_at, edited_at FROM messages WHERE id = ?", id).
		Scan(&message.ID, &message.ChannelID, &message.UserID, &message.Content, &message.CreatedAt, &message.EditedAt)
	return message, err
}

// GetMessages returns at most limit messages newest first. Message ids are
// creation ordered, so "strictly older than the before message" is an id
// comparison; same-instant messages still have a total order. Callers needing
// chronological order must reverse.
func GetMessages(channelID int64, limit int, before int64) ([]models.Message, error) {
	if limit < 1 {
		limit = 1
	} else if limit > maxMessagePage {
		limit = maxMessagePage
	}

	var query string
	args := []any{channelID}

	if before > 0 {
		query = "SELECT id, channel_id, user_id, content, created_at, edited_at FROM messages WHERE channel_id = ? AND id < ? ORDER BY id DESC LIMIT ?"
		args = append(args, before, limit)
	} else {
		query = "SELECT id, channel_id, user_id, content, created_at, edited_at FROM messages WHERE channel_id = ? ORDER BY id DESC LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}

	for rows.Next() {
		var message models.Message
		err := rows.Scan(&message.ID, &message.ChannelID, &message.UserID, &message.Content, &message.CreatedAt, &message.EditedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

// EditMessage is scoped to the authoring user. Editing marks the message by
// setting edited_at; there is no way back to the unedited state.
func EditMessage(id int64, userID int64, content string) (bool, error) {
	result, err := db.Exec("UPDATE messages SET content = ?, edited_at = ? WHERE id = ? AND user_id = ?",
		content, time.Now().UTC(), id, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func DeleteMessage(id int64, userID int64) (bool, error) {
	result, err := db.Exec("DELETE FROM messages WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteMessageAsOwner skips the author scoping. The caller must have
// verified server ownership first.
func DeleteMessageAsOwner(id int64) (bool, error) {
	result, err := db.Exec("DELETE FROM messages WHERE id = ?", id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

package database

import (
	"time"

	"groupchat-backend/internal/models"
	"groupchat-backend/internal/snowflake"
)

// CreateChannel appends the channel after the server's current last position.
// An empty channel set counts as position -1 so the first channel lands at 0.
func CreateChannel(serverID int64, name string) (models.Channel, error) {
	lock := serverLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	channelID, err := snowflake.Generate()
	if err != nil {
		return models.Channel{}, err
	}

	var maxPosition int
	err = db.QueryRow("SELECT COALESCE(MAX(position), -1) FROM channels WHERE server_id = ?", serverID).Scan(&maxPosition)
	if err != nil {
		return models.Channel{}, err
	}

	channel := models.Channel{
		ID:        channelID,
		ServerID:  serverID,
		Name:      name,
		Position:  maxPosition + 1,
		CreatedAt: time.Now().UTC(),
	}

	_, err = db.Exec("INSERT INTO channels (id, server_id, name, position, created_at) VALUES (?, ?, ?, ?, ?)",
		channel.ID, channel.ServerID, channel.Name, channel.Position, channel.CreatedAt)
	if err != nil {
		return models.Channel{}, err
	}

	return channel, nil
}

func GetChannel(id int64) (models.Channel, error) {
	var channel models.Channel
	err := db.QueryRow("SELECT id, server_id, name, position, created_at FROM channels WHERE id = ?", id).
		Scan(&channel.ID, &channel.ServerID, &channel.Name, &channel.Position, &channel.CreatedAt)
	return channel, err
}

func GetChannelsForServer(serverID int64) ([]models.Channel, error) {
	rows, err := db.Query("SELECT id, server_id, name, position, created_at FROM channels WHERE server_id = ? ORDER BY position", serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []models.Channel{}

	for rows.Next() {
		var channel models.Channel
		err := rows.Scan(&channel.ID, &channel.ServerID, &channel.Name, &channel.Position, &channel.CreatedAt)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}

	return channels, rows.Err()
}

func UpdateChannel(id int64, name string) (bool, error) {
	result, err := db.Exec("UPDATE channels SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func DeleteChannel(id int64) (bool, error) {
	result, err := db.Exec("DELETE FROM channels WHERE id = ?", id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func ChannelCount(serverID int64) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM channels WHERE server_id = ?", serverID).Scan(&count)
	return count, err
}

// ReorderChannels assigns position = index for each id in the given sequence,
// as one transaction. Updates are scoped by server id, so ids belonging to
// another server are silently unaffected. The caller is responsible for
// passing the server's full current channel set.
func ReorderChannels(serverID int64, orderedIDs []int64) error {
	lock := serverLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for position, channelID := range orderedIDs {
		_, err := tx.Exec("UPDATE channels SET position = ? WHERE id = ? AND server_id = ?", position, channelID, serverID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

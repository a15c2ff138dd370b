package database

import (
	"time"

	"groupchat-backend/internal/models"
	"groupchat-backend/internal/snowflake"
)

// CreateServer inserts the server, its default "general" channel at position 0
// and the owner's membership as one transaction. Either all three rows exist
// afterwards or none do.
func CreateServer(name string, ownerID int64, icon string) (models.Server, models.Channel, error) {
	serverID, err := snowflake.Generate()
	if err != nil {
		return models.Server{}, models.Channel{}, err
	}

	channelID, err := snowflake.Generate()
	if err != nil {
		return models.Server{}, models.Channel{}, err
	}

	now := time.Now().UTC()

	server := models.Server{
		ID:        serverID,
		OwnerID:   ownerID,
		Name:      name,
		Icon:      icon,
		CreatedAt: now,
	}

	channel := models.Channel{
		ID:        channelID,
		ServerID:  serverID,
		Name:      "general",
		Position:  0,
		CreatedAt: now,
	}

	tx, err := db.Begin()
	if err != nil {
		return models.Server{}, models.Channel{}, err
	}
	defer tx.Rollback()

	_, err = tx.Exec("INSERT INTO servers (id, owner_id, name, icon, created_at) VALUES (?, ?, ?, ?, ?)",
		server.ID, server.OwnerID, server.Name, server.Icon, server.CreatedAt)
	if err != nil {
		return models.Server{}, models.Channel{}, err
	}

	_, err = tx.Exec("INSERT INTO channels (id, server_id, name, position, created_at) VALUES (?, ?, ?, ?, ?)",
		channel.ID, channel.ServerID, channel.Name, channel.Position, channel.CreatedAt)
	if err != nil {
		return models.Server{}, models.Channel{}, err
	}

	_, err = tx.Exec("INSERT INTO memberships (server_id, user_id, joined_at) VALUES (?, ?, ?)",
		serverID, ownerID, now)
	if err != nil {
		return models.Server{}, models.Channel{}, err
	}

	err = tx.Commit()
	if err != nil {
		return models.Server{}, models.Channel{}, err
	}

	return server, channel, nil
}

func GetServer(id int64) (models.Server, error) {
	var server models.Server
	err := db.QueryRow("SELECT id, owner_id, name, icon, created_at FROM servers WHERE id = ?", id).
		Scan(&server.ID, &server.OwnerID, &server.Name, &server.Icon, &server.CreatedAt)
	return server, err
}

func GetServersForUser(userID int64) ([]models.Server, error) {
	rows, err := db.Query(`
		SELECT s.id, s.owner_id, s.name, s.icon, s.created_at
		FROM servers s
		JOIN memberships m ON m.server_id = s.id
		WHERE m.user_id = ?
		ORDER BY s.created_at, s.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	servers := []models.Server{}

	for rows.Next() {
		var server models.Server
		err := rows.Scan(&server.ID, &server.OwnerID, &server.Name, &server.Icon, &server.CreatedAt)
		if err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}

	return servers, rows.Err()
}

// UpdateServer changes only the supplied fields, scoped to rows the caller
// owns. A missing row and a not-owned row both report false; callers wanting
// to tell those apart resolve the server first.
func UpdateServer(id int64, ownerID int64, name *string, icon *string) (bool, error) {
	if name == nil && icon == nil {
		return false, ErrNoChanges
	}

	query := "UPDATE servers SET "
	args := []any{}

	if name != nil {
		query += "name = ?"
		args = append(args, *name)
	}
	if icon != nil {
		if name != nil {
			query += ", "
		}
		query += "icon = ?"
		args = append(args, *icon)
	}

	query += " WHERE id = ? AND owner_id = ?"
	args = append(args, id, ownerID)

	result, err := db.Exec(query, args...)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteServer relies on the cascade foreign keys to take the server's
// channels, memberships and messages with it.
func DeleteServer(id int64, ownerID int64) (bool, error) {
	result, err := db.Exec("DELETE FROM servers WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

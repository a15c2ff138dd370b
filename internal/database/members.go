package database

import (
	"errors"
	"strings"
	"time"

	"groupchat-backend/internal/models"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// isDuplicateKey recognizes the membership primary key firing on either
// backing store.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// JoinServer inserts a membership row. A duplicate (server, user) pair is the
// ErrAlreadyMember outcome, not a propagated store failure.
func JoinServer(serverID int64, userID int64) error {
	_, err := db.Exec("INSERT INTO memberships (server_id, user_id, joined_at) VALUES (?, ?, ?)",
		serverID, userID, time.Now().UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func LeaveServer(serverID int64, userID int64) (bool, error) {
	result, err := db.Exec("DELETE FROM memberships WHERE server_id = ? AND user_id = ?", serverID, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func GetMembers(serverID int64) ([]models.Member, error) {
	rows, err := db.Query("SELECT server_id, user_id, joined_at FROM memberships WHERE server_id = ? ORDER BY joined_at, user_id", serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.Member{}

	for rows.Next() {
		var member models.Member
		err := rows.Scan(&member.ServerID, &member.UserID, &member.JoinedAt)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

func IsMember(serverID int64, userID int64) (bool, error) {
	var isMember bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM memberships WHERE server_id = ? AND user_id = ?)", serverID, userID).Scan(&isMember)
	return isMember, err
}

// RemoveMember is the owner-initiated variant of LeaveServer. Same statement,
// separate name so call sites read as what they are.
func RemoveMember(serverID int64, userID int64) (bool, error) {
	return LeaveServer(serverID, userID)
}

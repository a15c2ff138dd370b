package database

import (
	"database/sql"
	"fmt"

	"groupchat-backend/internal/models"
)

var db *sql.DB

func setPragmaValues(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	// these next 2 extremely speed up performance of sqlite
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA synchronous = normal"); err != nil {
		return err
	}

	return nil
}

func readPragmaValues(db *sql.DB) error {
	var foreignKeysValue bool
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeysValue)
	if err != nil {
		return err
	}
	fmt.Printf("sqlite PRAGMA foreign_keys: %t\n", foreignKeysValue)

	var journalModeValue string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&journalModeValue)
	if err != nil {
		return err
	}
	fmt.Printf("sqlite PRAGMA journal_mode: %s\n", journalModeValue)

	var synchronousValue int

	err = db.QueryRow("PRAGMA synchronous").Scan(&synchronousValue)
	if err != nil {
		return err
	}

	var synchronousValueStr string
	switch synchronousValue {
	case 0:
		synchronousValueStr = "off"
	case 1:
		synchronousValueStr = "normal"
	case 2:
		synchronousValueStr = "full"
	case 3:
		synchronousValueStr = "extra"
	default:
		return fmt.Errorf("synchronous value is unsupported")
	}

	fmt.Printf("sqlite PRAGMA synchronous: %s\n", synchronousValueStr)

	return nil
}

func Setup(cfg *models.ConfigFile) (*sql.DB, error) {
	if cfg.SelfContained {
		fmt.Println("Connecting to database sqlite...")
	} else {
		fmt.Println("Connecting to database mysql/mariadb...")
	}

	var _db *sql.DB
	var err error

	if cfg.SelfContained {
		sqlitePath := cfg.DbDatabase
		if sqlitePath == "" {
			sqlitePath = "./database.db"
		}

		_db, err = sql.Open("sqlite", sqlitePath)
		if err != nil {
			return _db, err
		}

		// there can be sqlite busy errors if this is not set to 1
		_db.SetMaxOpenConns(1)

		err = setPragmaValues(_db)
		if err != nil {
			return _db, err
		}

		err = readPragmaValues(_db)
		if err != nil {
			return _db, err
		}
	} else {
		_db, err = sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&timeout=10s", cfg.DbUser, cfg.DbPassword, cfg.DbAddress, cfg.DbPort, cfg.DbDatabase))
		if err != nil {
			return _db, err
		}

		_db.SetMaxOpenConns(10)
	}

	err = setupTables(_db)
	if err != nil {
		return _db, err
	}

	db = _db
	return _db, nil
}

func setupTables(db *sql.DB) error {
	var err error

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS servers (
				id BIGINT PRIMARY KEY,
				owner_id BIGINT NOT NULL,
				name VARCHAR(100) NOT NULL,
				icon TEXT,
				created_at TIMESTAMP NOT NULL
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS channels (
				id BIGINT PRIMARY KEY,
				server_id BIGINT NOT NULL,
				name VARCHAR(100) NOT NULL,
				position INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				FOREIGN KEY (server_id) REFERENCES servers(id) ON DELETE CASCADE
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS memberships (
				server_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				joined_at TIMESTAMP NOT NULL,
				PRIMARY KEY (server_id, user_id),
				FOREIGN KEY (server_id) REFERENCES servers(id) ON DELETE CASCADE
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS messages (
				id BIGINT PRIMARY KEY,
				channel_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				content TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				edited_at TIMESTAMP NULL DEFAULT NULL,
				FOREIGN KEY (channel_id) REFERENCES channels(id) ON DELETE CASCADE
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec("CREATE INDEX IF NOT EXISTS idx_channels_server ON channels(server_id)")
	if err != nil {
		return err
	}

	_, err = db.Exec("CREATE INDEX IF NOT EXISTS idx_memberships_user ON memberships(user_id)")
	if err != nil {
		return err
	}

	// message ids are creation ordered, the pagination cursor walks this index
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, id)")
	if err != nil {
		return err
	}

	return nil
}

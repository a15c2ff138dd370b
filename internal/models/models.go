package models

import "time"

type Server struct {
	ID        int64     `json:"id,string"`
	OwnerID   int64     `json:"ownerID,string"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Channel struct {
	ID        int64     `json:"id,string"`
	ServerID  int64     `json:"serverID,string"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

type Member struct {
	ServerID int64     `json:"serverID,string"`
	UserID   int64     `json:"userID,string"`
	JoinedAt time.Time `json:"joinedAt"`
	Identity Identity  `json:"identity"`
}

type Message struct {
	ID        int64      `json:"id,string"`
	ChannelID int64      `json:"channelID,string"`
	UserID    int64      `json:"userID,string"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	Author    Identity   `json:"author"`
}

// Identity is what the external identity provider knows about a user.
// This backend never stores users itself.
type Identity struct {
	UID      int64  `json:"uid,string"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type ConfigFile struct {
	Address           string
	Port              string
	BehindNginx       bool
	TlsCert           string
	TlsKey            string
	Cors              bool
	PrintHttpRequests bool
	LogToFile         bool
	LogLevel          string
	JwtSecret         string
	SnowflakeWorkerID int64
	SelfContained     bool
	DbUser            string
	DbPassword        string
	DbAddress         string
	DbPort            string
	DbDatabase        string
	RedisAddress      string
	IdentityURL       string
	IdentityCacheSize int
	DevLogin          bool
}

// Package hub pushes mutation events to connected websocket clients. Clients
// subscribe to the server list, one server and one channel at a time; fanout
// goes through a process local map when self contained, through redis pub/sub
// otherwise.
package hub

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	UserID           int64
	Conn             *websocket.Conn
	SessionID        string
	CurrentServerID  int64
	CurrentChannelID int64
	PubSub           *redis.PubSub
	MsgCh            <-chan *redis.Message
	Ctx              context.Context
	mutex            sync.Mutex
}

// write serializes writes to the websocket connection, both the redis
// forwarder goroutine and local publishes go through it.
func (client *Client) write(message string) error {
	client.mutex.Lock()
	defer client.mutex.Unlock()

	return client.Conn.WriteMessage(websocket.TextMessage, []byte(message))
}

var clients = make(map[string]*Client)
var clientsMutex sync.Mutex

var sugar *zap.SugaredLogger
var redisClient *redis.Client
var selfContained = true

var redisCtx = context.Background()

func Setup(_sugar *zap.SugaredLogger, _redisClient *redis.Client, _selfContained bool) {
	sugar = _sugar
	redisClient = _redisClient
	selfContained = _selfContained
}

func HandleClient(w http.ResponseWriter, r *http.Request, userID int64, sessionID string) {
	sugar.Debugf("Connecting user ID [%d] to WebSocket as session [%s]", userID, sessionID)

	var upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sugar.Error(err)
		return
	}
	defer conn.Close()

	clientCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &Client{
		UserID:    userID,
		Conn:      conn,
		SessionID: sessionID,
		Ctx:       clientCtx,
	}

	if !selfContained {
		pubsub := redisClient.Subscribe(clientCtx)
		defer pubsub.Close()

		client.PubSub = pubsub
		client.MsgCh = pubsub.Channel()

		// forward redis pub/sub messages to the client
		go func() {
			for {
				select {
				case <-client.Ctx.Done():
					return
				case msg, ok := <-client.MsgCh:
					if !ok {
						return
					}
					err := client.write(msg.Payload)
					if err != nil {
						sugar.Error(err)
						return
					}
				}
			}
		}()
	}

	setClient(sessionID, client)

	// the client never sends application data, reading just detects the close
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			sugar.Debug(err)
			break
		}
	}

	deleteClient(sessionID)
}

func setClient(sessionID string, client *Client) {
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	clients[sessionID] = client
}

func deleteClient(sessionID string) {
	sugar.Debugf("Removing session [%s] from clients", sessionID)
	clientsMutex.Lock()
	delete(clients, sessionID)
	clientsMutex.Unlock()

	// clientsMutex must be released first: Emit takes the pubsub mutex and
	// then the clients mutex, holding both here in the other order deadlocks
	if selfContained {
		unsubscribeFromAllLocalPubSub(sessionID)
	}
}

func GetClient(sessionID string) (*Client, bool) {
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	client, exists := clients[sessionID]
	return client, exists
}

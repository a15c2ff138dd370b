package hub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

var localPubSubMutex sync.RWMutex
var localPubSub = make(map[string][]string)

func unsubscribeFromLocalPubSub(topic string, sessionID string) {
	sessionIDs := localPubSub[topic]

	// this won't run in case the topic doesn't exist since length will be 0
	for i := range sessionIDs {
		if sessionIDs[i] == sessionID {
			sessionIDs[i] = sessionIDs[len(sessionIDs)-1]
			localPubSub[topic] = sessionIDs[:len(sessionIDs)-1]
			break
		}
	}

	// delete topic from map if no session is subscribed to it
	if len(localPubSub[topic]) == 0 {
		delete(localPubSub, topic)
	}
}

func unsubscribeFromAllLocalPubSub(sessionID string) {
	localPubSubMutex.Lock()
	defer localPubSubMutex.Unlock()

	for topic := range localPubSub {
		unsubscribeFromLocalPubSub(topic, sessionID)
	}
}

// Subscribe points the session at a topic. A session follows one channel and
// one server at a time, so subscribing to a new one drops the old
// subscription first; the server list topic is always in view and never
// dropped.
func Subscribe(channelType string, targetID int64, sessionID string) error {
	client, exists := GetClient(sessionID)
	if !exists {
		return fmt.Errorf("session [%s] tried to subscribe to %s [%d] but isn't connected to hub", sessionID, channelType, targetID)
	}

	if selfContained {
		localPubSubMutex.Lock()
		defer localPubSubMutex.Unlock()
	}

	unsub := func(oldTopic string) error {
		if selfContained {
			unsubscribeFromLocalPubSub(oldTopic, sessionID)
			return nil
		}
		return client.PubSub.Unsubscribe(client.Ctx, oldTopic)
	}

	switch channelType {
	case ChannelTypeChannel:
		err := unsub(fmt.Sprintf("%s:%d", channelType, client.CurrentChannelID))
		if err != nil {
			return err
		}
		client.CurrentChannelID = targetID
	case ChannelTypeServer:
		err := unsub(fmt.Sprintf("%s:%d", channelType, client.CurrentServerID))
		if err != nil {
			return err
		}
		client.CurrentServerID = targetID
	case ChannelTypeServerList:
		// nothing to unsubscribe, the server list is constantly in view
	default:
		return fmt.Errorf("wrong channelType [%s] was provided to Subscribe", channelType)
	}

	newTopic := fmt.Sprintf("%s:%d", channelType, targetID)

	if selfContained {
		// the server list topic is never unsubscribed, so repeated list
		// fetches must not stack the session up on it
		for _, id := range localPubSub[newTopic] {
			if id == sessionID {
				return nil
			}
		}
		localPubSub[newTopic] = append(localPubSub[newTopic], sessionID)
	} else {
		err := client.PubSub.Subscribe(client.Ctx, newTopic)
		if err != nil {
			return err
		}
	}

	sugar.Debugf("Session [%s] subscribed to %s", sessionID, newTopic)

	return nil
}

// Emit publishes a mutation event to everyone on the topic. The wire format
// is the event name, a newline, then the JSON payload.
func Emit(messageType string, channelType string, targetID int64, payload any) error {
	topic := fmt.Sprintf("%s:%d", channelType, targetID)

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(len(messageType) + 1 + len(jsonBytes))
	buf.WriteString(messageType)
	buf.WriteByte('\n')
	buf.Write(jsonBytes)

	if selfContained {
		// deliver from a snapshot, GetClient takes the clients mutex and the
		// pubsub mutex must not be held across that
		localPubSubMutex.RLock()
		sessionIDs := append([]string(nil), localPubSub[topic]...)
		localPubSubMutex.RUnlock()

		for i := range sessionIDs {
			client, exists := GetClient(sessionIDs[i])
			if !exists {
				sugar.Warnf("Session [%s] is supposed to be available", sessionIDs[i])
				continue
			}
			err := client.write(buf.String())
			if err != nil {
				sugar.Error(err)
			}
		}
		return nil
	}

	return redisClient.Publish(redisCtx, topic, buf.String()).Err()
}

package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"santiye/internal/core"
)

// SyncMessage tells the worker that an entity is waiting in the sync queue.
// It carries references only; the worker loads the entity from the database.
type SyncMessage struct {
	ID        uuid.UUID     `json:"id"`
	Kind      core.SyncKind `json:"kind"`
	EntityID  int64         `json:"entity_id"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewSyncMessage(kind core.SyncKind, entityID int64) SyncMessage {
	return SyncMessage{
		ID:        uuid.New(),
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

func (m SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON decodes and checks a message body.
func SyncMessageFromJSON(data []byte) (SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SyncMessage{}, err
	}
	if msg.ID == uuid.Nil {
		return SyncMessage{}, fmt.Errorf("sync message without id")
	}
	if !msg.Kind.Valid() {
		return SyncMessage{}, fmt.Errorf("sync message %s: unknown kind %q", msg.ID, msg.Kind)
	}
	return msg, nil
}

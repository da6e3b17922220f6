package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// DatasetLoadedMessage announces that a dataset was loaded into the
// dashboard. It carries metadata only; rows never travel over the broker.
type DatasetLoadedMessage struct {
	Hash      string    `json:"hash"`
	Source    string    `json:"source"`
	Origin    string    `json:"origin"`
	Rows      int       `json:"rows"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetLoadedMessage creates a message stamped with the current time.
func NewDatasetLoadedMessage(hash, source, origin string, rows int, cacheHit bool) *DatasetLoadedMessage {
	return &DatasetLoadedMessage{
		Hash:      hash,
		Source:    source,
		Origin:    origin,
		Rows:      rows,
		CacheHit:  cacheHit,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetLoadedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetLoadedMessageFromJSON decodes a message and rejects ones without
// a content hash.
func DatasetLoadedMessageFromJSON(data []byte) (*DatasetLoadedMessage, error) {
	var msg DatasetLoadedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Hash == "" {
		return nil, errors.New("message has no dataset hash")
	}
	return &msg, nil
}

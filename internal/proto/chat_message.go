package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type chatMessageFields ChatMessage

var chatMessageKeys = map[string]struct{}{
	"id": {}, "conversationId": {}, "senderId": {}, "content": {}, "mediaUrl": {},
	"mediaType": {}, "timestamp": {}, "status": {}, "isDeleted": {},
}

// UnmarshalJSON accepts the timestamp as an RFC 3339 string or as epoch
// milliseconds, and collects unknown fields into Extra.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	aux := struct {
		*chatMessageFields
		Timestamp json.RawMessage `json:"timestamp"`
	}{chatMessageFields: (*chatMessageFields)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	m.Timestamp = ts

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key := range chatMessageKeys {
		delete(fields, key)
	}
	m.Extra = nil
	if len(fields) > 0 {
		m.Extra = fields
	}
	return nil
}

// MarshalJSON writes the known fields and then any Extra field whose name is not taken.
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(chatMessageFields(m))
	if err != nil || len(m.Extra) == 0 {
		return base, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for key, value := range m.Extra {
		if _, taken := fields[key]; !taken {
			fields[key] = value
		}
	}
	return json.Marshal(fields)
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("timestamp: %w", err)
		}
		if s == "" {
			return time.Time{}, nil
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp: %w", err)
		}
		return ts, nil
	}

	var millis json.Number
	if err := json.Unmarshal(raw, &millis); err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}
	if n, err := millis.Int64(); err == nil {
		return time.UnixMilli(n).UTC(), nil
	}
	f, err := millis.Float64()
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}
	return time.UnixMilli(int64(f)).UTC(), nil
}

// Package feeds receives raw event records from live sources (WebSocket and MQTT) and
// buffers them for the arc engine.
package feeds

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sudorandom/arcmap/pkg/arcengine"
)

var ErrEmptyPayload = errors.New("empty payload")

// Handler receives each decoded batch together with the name of the feed it came from.
type Handler func(feed string, records []arcengine.RawRecord)

// Chain calls every handler in order.
func Chain(handlers ...Handler) Handler {
	return func(feed string, records []arcengine.RawRecord) {
		for _, h := range handlers {
			if h != nil {
				h(feed, records)
			}
		}
	}
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeBatch decodes a JSON array of records, a single record, or an envelope of the
// form {"type": ..., "data": record-or-array}. Array elements that are not objects are
// skipped.
func DecodeBatch(payload []byte) ([]arcengine.RawRecord, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	switch payload[0] {
	case '[':
		return decodeArray(payload)
	case '{':
		var env envelope
		if err := json.Unmarshal(payload, &env); err == nil && env.Type != "" && len(env.Data) > 0 {
			return DecodeBatch(env.Data)
		}
		var r arcengine.RawRecord
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		return []arcengine.RawRecord{r}, nil
	default:
		return nil, fmt.Errorf("decode batch: unexpected %q", payload[0])
	}
}

func decodeArray(payload []byte) ([]arcengine.RawRecord, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	out := make([]arcengine.RawRecord, 0, len(items))
	for _, item := range items {
		var r arcengine.RawRecord
		if json.Unmarshal(item, &r) != nil || r == nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

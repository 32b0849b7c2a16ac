package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID    = "event_id"
	HeaderEventType  = "event_type"
	HeaderBusinessID = "business_id"
)

// EventMeta travels in message headers so consumers can de-duplicate and
// route without decoding the payload.
type EventMeta struct {
	EventID    string
	EventType  string
	BusinessID string
}

func (m EventMeta) headers() []kafka.Header {
	h := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(m.EventID)},
		{Key: HeaderEventType, Value: []byte(m.EventType)},
	}
	if m.BusinessID != "" {
		h = append(h, kafka.Header{Key: HeaderBusinessID, Value: []byte(m.BusinessID)})
	}
	return h
}

// ExtractEventMeta reads the meta headers. Producers that do not stamp them
// are covered by falling back to the message key and topic.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	meta := EventMeta{
		EventID:    HeaderValue(msg.Headers, HeaderEventID),
		EventType:  HeaderValue(msg.Headers, HeaderEventType),
		BusinessID: HeaderValue(msg.Headers, HeaderBusinessID),
	}
	if meta.EventID == "" {
		meta.EventID = string(msg.Key)
	}
	if meta.EventType == "" {
		meta.EventType = msg.Topic
	}
	return meta
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

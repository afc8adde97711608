package redis

import (
	"context"
	"encoding/json"
	"testing"
)

type captured struct {
	userID int64
	event  string
	data   string
}

type captureEmitter struct{ got []captured }

func (c *captureEmitter) EmitToUser(_ context.Context, userID int64, event string, payload interface{}) error {
	raw, _ := json.Marshal(payload)
	c.got = append(c.got, captured{userID, event, string(raw)})
	return nil
}

func TestRelay(t *testing.T) {
	local := &captureEmitter{}
	b := NewBroadcaster(nil, "test", local, nil)

	b.relay(context.Background(), `{"userId":5,"event":"notification:new","data":{"unreadCount":2}}`)
	b.relay(context.Background(), `not json`)
	b.relay(context.Background(), `{"userId":0,"event":"x","data":null}`)

	if len(local.got) != 1 {
		t.Fatalf("expected one delivery, got %+v", local.got)
	}
	got := local.got[0]
	if got.userID != 5 || got.event != "notification:new" || got.data != `{"unreadCount":2}` {
		t.Fatalf("unexpected delivery %+v", got)
	}
}

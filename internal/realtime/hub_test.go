package realtime

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
)

func TestNewHubCreatesPubSubHandle(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer rdb.Close()

	h := NewHub(rdb, nil)
	if h.pubsub == nil {
		t.Fatal("pubsub handle must exist before Run starts, otherwise early subscribers never attach")
	}
	if err := h.pubsub.Close(); err != nil {
		t.Fatalf("closing an unstarted pubsub: %v", err)
	}
}

func TestNewHubWithoutRedis(t *testing.T) {
	h := NewHub(nil, nil)
	if h.pubsub != nil {
		t.Fatal("no redis client, no pubsub handle")
	}
	// Run must return instead of dereferencing a nil handle.
	h.Run(context.Background())
}

func TestBroadcastDeliversToSubscribers(t *testing.T) {
	h := NewHub(nil, nil)

	c := &Client{send: make(chan []byte, 1), channels: map[string]struct{}{}}
	h.subs["org:1"] = map[*Client]struct{}{c: {}}

	h.broadcast("org:1", []byte(`{"type":"call.updated"}`))

	select {
	case msg := <-c.send:
		if string(msg) != `{"type":"call.updated"}` {
			t.Errorf("unexpected frame: %s", msg)
		}
	default:
		t.Fatal("subscribed client did not receive the frame")
	}

	h.broadcast("org:2", []byte(`x`))
	select {
	case msg := <-c.send:
		t.Fatalf("client got a frame for a channel it never joined: %s", msg)
	default:
	}
}

package monitor

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcastsSnapshotToClient(t *testing.T) {
	h := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	go h.Serve(ctx, addr)

	wsURL := "ws://" + addr + "/ws"
	var conn *websocket.Conn
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, _, err = websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// give the hub a moment to finish registering the client before publishing
	time.Sleep(20 * time.Millisecond)
	h.Publish(Snapshot{Timestamp: 1, MessagesSent: 5, CurrentRate: 2.5})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, body, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.MessagesSent != 5 || snap.CurrentRate != 2.5 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestPublishNeverBlocksWhenChannelFull(t *testing.T) {
	h := NewHub()
	// Fill the broadcast channel without a running Run goroutine draining it;
	// Publish must still return immediately rather than block.
	for i := 0; i < cap(h.broadcast)+5; i++ {
		h.Publish(Snapshot{Timestamp: int64(i)})
	}
}

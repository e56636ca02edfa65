package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/g21-super-team/funny-movies-be/internal/auth"
	"github.com/g21-super-team/funny-movies-be/internal/hub"
	"github.com/g21-super-team/funny-movies-be/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// serveWS upgrades the connection and runs its read loop. The connection
// starts unauthenticated; the admission supervisor force-closes it unless
// an "auth" message with a valid token arrives within the grace period.
func (a *app) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	connID, err := auth.RandomID(16)
	if err != nil {
		_ = ws.Close()
		return
	}

	c := &hub.Conn{ID: connID, WS: ws, Out: make(chan []byte, a.cfg.WS.OutBuffer)}
	a.hub.Add(c)
	metrics.OnlineConns.Set(float64(a.hub.Len()))

	go hub.WriteLoop(c, a.cfg.WS.WriteTimeout.Std())
	a.sup.OnConnect(connID)

	defer func() {
		a.hub.Remove(connID)
		a.sup.OnDisconnect(connID)
		close(c.Out)
		metrics.OnlineConns.Set(float64(a.hub.Len()))
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Event != "auth" {
			continue
		}

		var body struct {
			Token string `json:"token"`
		}
		_ = json.Unmarshal(msg.Data, &body)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		uid, err := a.sup.Authenticate(ctx, connID, body.Token)
		cancel()
		if err != nil {
			// the supervisor already forced the disconnect
			return
		}

		ack, _ := json.Marshal(map[string]any{
			"event": "auth:ack",
			"data":  map[string]string{"userId": strconv.FormatInt(uid, 10)},
		})
		select {
		case c.Out <- ack:
		default:
		}
	}
}

package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"auction-client/internal/services"
	"auction-client/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local status surface
	},
}

const viewWriteWait = 5 * time.Second

// ViewStreamHandler pushes every reconciled view to local websocket
// clients and accepts bids from them.
type ViewStreamHandler struct {
	sync      AuctionSync
	observers *services.ObserverRegistry
	log       logger.Logger
}

type streamMessage struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

func NewViewStreamHandler(sync AuctionSync, observers *services.ObserverRegistry, log logger.Logger) *ViewStreamHandler {
	return &ViewStreamHandler{
		sync:      sync,
		observers: observers,
		log:       log,
	}
}

func (h *ViewStreamHandler) HandleConnection(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return nil
	}

	client := &viewClient{conn: conn}
	id := uuid.NewString()
	obs := services.NewChannelObserver(8)
	h.observers.Subscribe(id, obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.observers.Unsubscribe(id)
		conn.Close()
	}()

	go h.pushViews(ctx, client, obs)
	h.handleMessages(ctx, client)
	return nil
}

func (h *ViewStreamHandler) pushViews(ctx context.Context, client *viewClient, obs *services.ChannelObserver) {
	if err := client.send(map[string]any{"type": "view", "view": h.sync.View()}); err != nil {
		return
	}
	for {
		select {
		case view := <-obs.Views():
			if err := client.send(map[string]any{"type": "view", "view": view}); err != nil {
				h.log.Debug("Failed to push view", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *ViewStreamHandler) handleMessages(ctx context.Context, client *viewClient) {
	for {
		var msg streamMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Error("Failed to read message", "error", err)
			}
			return
		}

		switch msg.Type {
		case "place_bid":
			outcome := h.sync.PlaceBid(ctx, msg.Amount)
			_ = client.send(map[string]any{
				"type":   "bid_result",
				"result": outcome.Result,
				"price":  outcome.Price,
				"reason": outcome.Reason,
			})
		case "ping":
			_ = client.send(map[string]string{"type": "pong"})
		}
	}
}

type viewClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (vc *viewClient) send(message any) error {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	_ = vc.conn.SetWriteDeadline(time.Now().Add(viewWriteWait))
	return vc.conn.WriteJSON(message)
}

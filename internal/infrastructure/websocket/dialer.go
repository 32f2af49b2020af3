package websocket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"auction-client/internal/domain"
	"auction-client/pkg/logger"

	"github.com/gorilla/websocket"
)

// Dialer opens the auction push stream at {base}/ws/{auction_id}?token=...
type Dialer struct {
	BaseURL   string
	ReadLimit int64
	// PongWait arms a read deadline that every pong extends. Zero leaves
	// reads without a deadline; the auction server does not ping.
	PongWait  time.Duration
	WriteWait time.Duration

	dialer *websocket.Dialer
	log    logger.Logger
}

func NewDialer(baseURL string, handshakeTimeout time.Duration, log logger.Logger) *Dialer {
	return &Dialer{
		BaseURL:   baseURL,
		ReadLimit: 1 << 20,
		WriteWait: 2 * time.Second,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		log: log,
	}
}

// StreamURL builds the stream address. http and https bases are mapped to
// ws and wss.
func (d *Dialer) StreamURL(auctionID int64, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(d.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid stream base url %q: %w", d.BaseURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported stream url scheme %q", u.Scheme)
	}
	u.Path = u.Path + "/ws/" + strconv.FormatInt(auctionID, 10)
	u.RawQuery = url.Values{"token": []string{token}}.Encode()
	return u.String(), nil
}

func (d *Dialer) Dial(ctx context.Context, auctionID int64, token string) (domain.StreamTransport, error) {
	streamURL, err := d.StreamURL(auctionID, token)
	if err != nil {
		return nil, err
	}

	c, resp, err := d.dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	c.SetReadLimit(d.ReadLimit)
	if d.PongWait > 0 {
		_ = c.SetReadDeadline(time.Now().Add(d.PongWait))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(d.PongWait))
		})
	}

	t := &Transport{conn: c, writeWait: d.WriteWait}
	c.SetPingHandler(func(appData string) error {
		return t.writeControl(websocket.PongMessage, []byte(appData))
	})

	d.log.Debug("Websocket connected", "auction_id", auctionID)
	return t, nil
}

// Transport is one open websocket. ReadFrame must be called from a single
// goroutine; Close may be called from any.
type Transport struct {
	conn      *websocket.Conn
	writeWait time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (t *Transport) ReadFrame() ([]byte, error) {
	_, msg, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		_ = t.writeControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = t.conn.Close()
	})
	return err
}

func (t *Transport) writeControl(messageType int, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteControl(messageType, data, time.Now().Add(t.writeWait))
}

var _ domain.StreamDialer = (*Dialer)(nil)
var _ domain.StreamTransport = (*Transport)(nil)

package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/hub"
	"github.com/wricardo/connect6-live/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Command replies queued per connection
	replyBufferSize = 16
)

const (
	EventStateUpdate = "state_update"
	EventResult      = "result"
	EventError       = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is what the server sends
type Message struct {
	Event  string              `json:"event"`
	State  *engine.Snapshot    `json:"state,omitempty"`
	Result *service.MoveResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// Command is what a participant sends
type Command struct {
	Action string `json:"action"`
	Choice int    `json:"choice,omitempty"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
}

// Options configures a Handler
type Options struct {
	// Buffer is the per-connection snapshot queue length
	Buffer int
	// Timeout ends the subscription after this long. Zero never expires it.
	Timeout time.Duration
}

// Handler upgrades requests and serves them as game observers
type Handler struct {
	service service.GameService
	logger  *zap.Logger
	opts    Options
}

// NewHandler creates a WebSocket handler
func NewHandler(gameService service.GameService, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: gameService,
		logger:  logger.Named("websocket"),
		opts:    opts,
	}
}

// Client represents a WebSocket client
type Client struct {
	handler       *Handler
	conn          *websocket.Conn
	stream        *service.Stream
	replies       chan Message
	participantID string
	cancel        context.CancelFunc
	logger        *zap.Logger
}

// ServeWS handles WebSocket requests from clients
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	participantID := r.URL.Query().Get("playerId")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The request context ends when ServeWS returns, so the connection
	// gets its own.
	ctx, cancel := context.WithCancel(context.Background())

	label := "ws"
	if participantID != "" {
		label = "ws:" + participantID
	}
	stream, err := h.service.Subscribe(ctx, hub.SubscribeOptions{
		Label:   label,
		Buffer:  h.opts.Buffer,
		Timeout: h.opts.Timeout,
	})
	if err != nil {
		cancel()
		h.logger.Warn("subscribe failed", zap.Error(err))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "updates unavailable"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	client := &Client{
		handler:       h,
		conn:          conn,
		stream:        stream,
		replies:       make(chan Message, replyBufferSize),
		participantID: participantID,
		cancel:        cancel,
		logger:        h.logger.With(zap.String("stream", stream.ID()), zap.String("participant", participantID)),
	}
	client.logger.Debug("client connected")

	// Start client goroutines
	go client.writePump()
	go client.readPump(ctx)
}

// readPump decodes commands from the connection until it fails
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.reply(Message{Event: EventError, Error: "invalid message"})
			continue
		}
		c.reply(c.execute(ctx, cmd))
	}
}

// execute runs one participant command against the game service
func (c *Client) execute(ctx context.Context, cmd Command) Message {
	svc := c.handler.service

	if cmd.Action == "state" {
		snap, err := svc.GetState(ctx)
		if err != nil {
			return Message{Event: EventError, Error: err.Error()}
		}
		return Message{Event: EventStateUpdate, State: snap}
	}
	if cmd.Action == "reset" {
		snap, err := svc.Reset(ctx)
		if err != nil {
			return Message{Event: EventError, Error: err.Error()}
		}
		return Message{Event: EventResult, Result: &service.MoveResult{Accepted: true, State: snap}}
	}

	if c.participantID == "" {
		return Message{Event: EventError, Error: "playerId query parameter required for " + cmd.Action}
	}

	var (
		res *service.MoveResult
		err error
	)
	switch cmd.Action {
	case "choose":
		res, err = svc.ChooseColor(ctx, c.participantID, cmd.Choice)
	case "move":
		if cmd.X == nil || cmd.Y == nil {
			return Message{Event: EventError, Error: "x and y are required"}
		}
		res, err = svc.MakeMove(ctx, c.participantID, *cmd.X, *cmd.Y)
	default:
		return Message{Event: EventError, Error: "unknown action: " + cmd.Action}
	}
	if err != nil {
		return Message{Event: EventError, Error: err.Error()}
	}
	return Message{Event: EventResult, Result: res}
}

// reply queues a message for the write pump, dropping it if the queue is full
func (c *Client) reply(msg Message) {
	select {
	case c.replies <- msg:
	default:
		c.logger.Warn("reply queue full, dropping reply", zap.String("event", msg.Event))
	}
}

// writePump pumps snapshots and replies to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.conn.Close()
		c.logger.Debug("client disconnected")
	}()

	initial := c.stream.Initial
	if err := c.write(Message{Event: EventStateUpdate, State: &initial}); err != nil {
		return
	}

	updates := c.stream.Updates()
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				// The hub ended the subscription
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.stream.Fresh(snap) {
				continue
			}
			if err := c.write(Message{Event: EventStateUpdate, State: &snap}); err != nil {
				c.logger.Debug("websocket write failed", zap.Uint64("version", snap.Version), zap.Error(err))
				return
			}

		case msg := <-c.replies:
			if err := c.write(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(msg Message) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

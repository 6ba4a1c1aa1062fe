package observer

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// Client wraps one upgraded websocket connection and its subscription set.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan StateEvent

	id            string
	subject       string
	subscriptions map[string]bool
}

// NewClient constructs a Client bound to an authenticated subject.
func NewClient(id, subject string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan StateEvent, sendBufferSize),
		id:            id,
		subject:       subject,
		subscriptions: make(map[string]bool),
	}
}

// Send exposes the client's outbound event channel, read by WritePump in
// production and usable directly by a host that embeds the Hub without a
// websocket transport (e.g. tests, or an in-process UI).
func (c *Client) Send() <-chan StateEvent { return c.send }

// ReadPump reads subscribe/unsubscribe commands until the connection closes.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.respond(newError("error", "invalid command format"))
			continue
		}
		c.handle(&cmd)
	}
}

// WritePump pushes queued StateEvents and periodic pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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

func (c *Client) handle(cmd *Command) {
	switch cmd.Action {
	case CmdSubscribe:
		if cmd.GraphID == "" {
			c.respond(newError(CmdSubscribe, "graphId required"))
			return
		}
		c.hub.Subscribe(c, cmd.GraphID)
		c.respond(newSuccess(CmdSubscribe, "subscribed to "+cmd.GraphID))
	case CmdUnsubscribe:
		if cmd.GraphID == "" {
			c.respond(newError(CmdUnsubscribe, "graphId required"))
			return
		}
		c.hub.Unsubscribe(c, cmd.GraphID)
		c.respond(newSuccess(CmdUnsubscribe, "unsubscribed from "+cmd.GraphID))
	default:
		c.respond(newError("error", "unknown command: "+cmd.Action))
	}
}

func (c *Client) respond(resp *Response) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteJSON(resp)
}

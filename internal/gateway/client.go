package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/geany-y/AIDrivenChat/internal/auth"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one authenticated websocket connection. Its identity is
// fixed at handshake time and never changes for the connection's
// lifetime. The channel field is owned by the gateway's run loop.
type Client struct {
	conn     *websocket.Conn
	gateway  *Gateway
	log      *log.Logger
	session  auth.Session
	send     chan *ServerEvent
	channel  string
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(session auth.Session, conn *websocket.Conn, gw *Gateway, l *log.Logger) *Client {
	return &Client{
		conn:    conn,
		gateway: gw,
		log:     l,
		session: session,
		send:    make(chan *ServerEvent, 256),
		stop:    make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(evt)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.writeMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var evt ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.log.Println("error parsing event:", err)
			c.queueEvent(ErrInvalidEvent())
			continue
		}

		switch {
		case evt.JoinChannel != nil:
			c.gateway.join(c, evt.JoinChannel.ChannelId)
		case evt.SendMessage != nil:
			c.gateway.publish(c, evt.SendMessage)
		default:
			c.queueEvent(ErrInvalidEvent())
		}
	}
}

func (c *Client) queueEvent(evt *ServerEvent) bool {
	select {
	case c.send <- evt:
	default:
		c.log.Println("failed to queue event for client, channel is full")
		return false
	}

	return true
}

func (c *Client) writeMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

// cleanup releases the connection's channel memberships and stops the
// write pump. Safe to call more than once.
func (c *Client) cleanup() {
	c.gateway.deregister(c)
	c.close()
}

func (c *Client) close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

package gateway

import (
	"context"
	"log"

	"github.com/geany-y/AIDrivenChat/internal/database"
	"github.com/geany-y/AIDrivenChat/internal/stats"
	"github.com/geany-y/AIDrivenChat/internal/types"
)

// GlobalChannel is the broadcast group every authenticated connection
// is implicitly a member of. It is not backed by a persisted channel,
// so messages published to it are never stored.
const GlobalChannel = "global"

const (
	activeConnectionsMetric = "ActiveConnections"
	activeChannelsMetric    = "ActiveChannels"
	messagesSentMetric      = "MessagesSent"
)

type joinRequest struct {
	client    *Client
	channelId string
}

type publishRequest struct {
	client *Client
	msg    *SendMessage
}

// Gateway owns the channel membership registry. All membership
// mutation and message acceptance happens on its single run loop, so
// two publishes to the same channel are processed in the order they
// arrived and no locks are needed around the registry.
type Gateway struct {
	log            *log.Logger
	db             database.ChatRepository
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	membership     map[string]map[*Client]struct{}
	registerChan   chan *Client
	deregisterChan chan *Client
	joinChan       chan joinRequest
	publishChan    chan publishRequest
	stop           chan struct{}
	done           chan struct{}
}

func NewGateway(logger *log.Logger, db database.ChatRepository, sp stats.StatsProvider) *Gateway {
	sp.RegisterMetric(activeConnectionsMetric)
	sp.RegisterMetric(activeChannelsMetric)
	sp.RegisterMetric(messagesSentMetric)

	return &Gateway{
		log:            logger,
		db:             db,
		stats:          sp,
		clients:        make(map[*Client]struct{}),
		membership:     make(map[string]map[*Client]struct{}),
		registerChan:   make(chan *Client),
		deregisterChan: make(chan *Client),
		joinChan:       make(chan joinRequest, 256),
		publishChan:    make(chan publishRequest, 256),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (g *Gateway) Run() {
	for {
		select {
		case client := <-g.registerChan:
			g.log.Printf("adding connection from %q", client.session.Username)
			g.addClient(client)
		case client := <-g.deregisterChan:
			g.log.Printf("removing connection from %q", client.session.Username)
			g.removeClient(client)
		case req := <-g.joinChan:
			g.handleJoin(req)
		case req := <-g.publishChan:
			g.handlePublish(req)
		case <-g.stop:
			g.log.Println("closing connections")
			for c := range g.clients {
				c.close()
			}

			close(g.done)
			return
		}
	}
}

// Register attaches an authenticated connection to the gateway. The
// connection joins the implicit global group only; explicit channel
// membership requires a join event.
func (g *Gateway) Register(c *Client) {
	select {
	case g.registerChan <- c:
	case <-g.stop:
	}
}

func (g *Gateway) deregister(c *Client) {
	select {
	case g.deregisterChan <- c:
	case <-g.stop:
	}
}

func (g *Gateway) join(c *Client, channelId string) {
	select {
	case g.joinChan <- joinRequest{client: c, channelId: channelId}:
	case <-g.stop:
	default:
		g.log.Println("join channel full")
		c.queueEvent(ErrServiceUnavailable())
	}
}

func (g *Gateway) publish(c *Client, msg *SendMessage) {
	select {
	case g.publishChan <- publishRequest{client: c, msg: msg}:
	case <-g.stop:
	default:
		g.log.Println("publish channel full")
		c.queueEvent(ErrServiceUnavailable())
	}
}

func (g *Gateway) addClient(c *Client) {
	g.clients[c] = struct{}{}
	g.stats.Incr(activeConnectionsMetric)
}

func (g *Gateway) removeClient(c *Client) {
	if _, ok := g.clients[c]; !ok {
		// already removed, disconnect is idempotent
		return
	}

	delete(g.clients, c)
	g.leaveCurrentChannel(c)
	g.stats.Decr(activeConnectionsMetric)
}

// leaveCurrentChannel drops the client's explicit channel membership,
// if any. Membership in the global group is untouched.
func (g *Gateway) leaveCurrentChannel(c *Client) {
	if c.channel == "" {
		return
	}

	if members, ok := g.membership[c.channel]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(g.membership, c.channel)
			g.stats.Decr(activeChannelsMetric)
		}
	}
	c.channel = ""
}

// handleJoin replaces the client's explicit channel membership with
// the requested channel. A connection is a member of at most one
// explicit channel at a time, plus the global group. The channel id
// is not validated against the channel directory: joining a channel
// that was never created simply yields a group nobody can persist
// messages to.
func (g *Gateway) handleJoin(req joinRequest) {
	c := req.client
	if _, ok := g.clients[c]; !ok {
		// join raced with a disconnect
		return
	}

	g.leaveCurrentChannel(c)

	if req.channelId == GlobalChannel {
		// every connection is already a member of the global group
		return
	}

	if g.membership[req.channelId] == nil {
		g.membership[req.channelId] = make(map[*Client]struct{})
		g.stats.Incr(activeChannelsMetric)
	}
	g.membership[req.channelId][c] = struct{}{}
	c.channel = req.channelId

	g.log.Printf("%q joined channel %q", c.session.Username, req.channelId)
}

// handlePublish validates that the sender is currently a member of
// the target channel, persists the message and fans it out to every
// member, sender included. Failures are reported to the sender only
// and never reach other connections.
func (g *Gateway) handlePublish(req publishRequest) {
	c := req.client

	if !g.isMember(c, req.msg.ChannelId) {
		c.queueEvent(ErrNotAuthorized())
		return
	}

	channel, err := g.db.GetChannelByExternalId(req.msg.ChannelId)
	if err != nil {
		g.log.Printf("get channel %q: %v", req.msg.ChannelId, err)
		c.queueEvent(ErrSendFailed())
		return
	}

	msg, err := g.db.CreateMessage(database.CreateMessageParams{
		ChannelId: channel.Id,
		UserId:    c.session.UserId,
		Username:  c.session.Username,
		Content:   req.msg.Content,
		ParentId:  req.msg.ParentId,
	})
	if err != nil {
		g.log.Println("error saving message:", err)
		c.queueEvent(ErrSendFailed())
		return
	}

	g.stats.Incr(messagesSentMetric)

	event := &ServerEvent{
		Message: &types.Message{
			Id:        msg.Id,
			ChannelId: channel.ExternalId,
			UserId:    msg.UserId,
			Username:  msg.Username,
			Content:   msg.Content,
			ParentId:  req.msg.ParentId,
			Timestamp: msg.CreatedAt,
		},
	}

	g.broadcast(req.msg.ChannelId, event)
}

func (g *Gateway) isMember(c *Client, channelId string) bool {
	if channelId == GlobalChannel {
		_, ok := g.clients[c]
		return ok
	}

	members, ok := g.membership[channelId]
	if !ok {
		return false
	}

	_, ok = members[c]
	return ok
}

// broadcast delivers an event to every current member of the channel.
// Delivery is at-most-once: a member whose send queue is full misses
// the event rather than stalling the loop.
func (g *Gateway) broadcast(channelId string, evt *ServerEvent) {
	if channelId == GlobalChannel {
		for c := range g.clients {
			c.queueEvent(evt)
		}
		return
	}

	for c := range g.membership[channelId] {
		c.queueEvent(evt)
	}
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	close(g.stop)

	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

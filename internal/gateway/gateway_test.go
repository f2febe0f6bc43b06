package gateway

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/geany-y/AIDrivenChat/internal/auth"
	"github.com/geany-y/AIDrivenChat/internal/database"
	"github.com/geany-y/AIDrivenChat/internal/stats"
	"github.com/geany-y/AIDrivenChat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestGateway(t *testing.T, db database.ChatRepository) (*Gateway, *stats.MockStatsUpdater) {
	t.Helper()

	mockStats := &stats.MockStatsUpdater{}
	mockStats.On("RegisterMetric", mock.Anything).Return()
	mockStats.On("Incr", mock.Anything).Return()
	mockStats.On("Decr", mock.Anything).Return()

	return NewGateway(testutil.TestLogger(t), db, mockStats), mockStats
}

func newTestClient(gw *Gateway, id int, username string) *Client {
	return &Client{
		gateway: gw,
		log:     gw.log,
		session: auth.Session{UserId: id, Username: username},
		send:    make(chan *ServerEvent, 256),
		stop:    make(chan struct{}),
	}
}

func receiveEvent(t *testing.T, c *Client) *ServerEvent {
	t.Helper()

	select {
	case evt := <-c.send:
		return evt
	default:
		t.Fatalf("expected an event queued for %q", c.session.Username)
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case evt := <-c.send:
		t.Fatalf("expected no event for %q, got %+v", c.session.Username, evt)
	default:
	}
}

func Test_handleJoin_replacesMembership(t *testing.T) {
	gw, _ := newTestGateway(t, &database.MockChatRepository{})

	c := newTestClient(gw, 1, "alice")
	gw.addClient(c)

	gw.handleJoin(joinRequest{client: c, channelId: "chan-a"})
	assert.Contains(t, gw.membership["chan-a"], c, "expected client to be a member of chan-a")
	assert.Equal(t, "chan-a", c.channel, "expected client's channel to be chan-a")

	gw.handleJoin(joinRequest{client: c, channelId: "chan-b"})
	assert.NotContains(t, gw.membership, "chan-a", "expected chan-a group to be dropped after switching")
	assert.Contains(t, gw.membership["chan-b"], c, "expected client to be a member of chan-b")
	assert.Equal(t, "chan-b", c.channel, "expected client's channel to be chan-b")
}

func Test_handleJoin_globalLeavesExplicitChannel(t *testing.T) {
	gw, _ := newTestGateway(t, &database.MockChatRepository{})

	c := newTestClient(gw, 1, "alice")
	gw.addClient(c)

	gw.handleJoin(joinRequest{client: c, channelId: "chan-a"})
	gw.handleJoin(joinRequest{client: c, channelId: GlobalChannel})

	assert.Empty(t, gw.membership, "expected no explicit memberships")
	assert.Empty(t, c.channel, "expected client's explicit channel to be cleared")
	assert.True(t, gw.isMember(c, GlobalChannel), "expected client to remain a global member")
}

func Test_handleJoin_unregisteredClient(t *testing.T) {
	gw, _ := newTestGateway(t, &database.MockChatRepository{})

	c := newTestClient(gw, 1, "alice")
	gw.handleJoin(joinRequest{client: c, channelId: "chan-a"})

	assert.Empty(t, gw.membership, "expected no membership for a client that raced a disconnect")
}

func Test_isMember(t *testing.T) {
	gw, _ := newTestGateway(t, &database.MockChatRepository{})

	member := newTestClient(gw, 1, "alice")
	outsider := newTestClient(gw, 2, "bob")
	gw.addClient(member)
	gw.addClient(outsider)
	gw.handleJoin(joinRequest{client: member, channelId: "chan-a"})

	assert.True(t, gw.isMember(member, "chan-a"), "expected joined client to be a member")
	assert.False(t, gw.isMember(outsider, "chan-a"), "expected non-joined client not to be a member")
	assert.True(t, gw.isMember(outsider, GlobalChannel), "expected every connection to be a global member")
	assert.False(t, gw.isMember(outsider, "no-such-channel"), "expected no membership in an unknown channel")
}

func Test_handlePublish_notAMember(t *testing.T) {
	mockRepo := &database.MockChatRepository{}
	defer mockRepo.AssertExpectations(t)
	gw, _ := newTestGateway(t, mockRepo)

	sender := newTestClient(gw, 1, "alice")
	member := newTestClient(gw, 2, "bob")
	gw.addClient(sender)
	gw.addClient(member)
	gw.handleJoin(joinRequest{client: member, channelId: "chan-a"})

	gw.handlePublish(publishRequest{client: sender, msg: &SendMessage{ChannelId: "chan-a", Content: "hi"}})

	evt := receiveEvent(t, sender)
	assert.Equal(t, ErrNotAuthorized().Error, evt.Error, "expected authorization error for sender")
	assertNoEvent(t, member)
	mockRepo.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func Test_handlePublish_unknownChannel(t *testing.T) {
	mockRepo := &database.MockChatRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("GetChannelByExternalId", "ghost").Return(database.Channel{}, sql.ErrNoRows).Once()

	gw, _ := newTestGateway(t, mockRepo)

	sender := newTestClient(gw, 1, "alice")
	gw.addClient(sender)
	// joining never validates channel existence, so the failure only
	// shows up when the message cannot be persisted
	gw.handleJoin(joinRequest{client: sender, channelId: "ghost"})

	gw.handlePublish(publishRequest{client: sender, msg: &SendMessage{ChannelId: "ghost", Content: "hi"}})

	evt := receiveEvent(t, sender)
	assert.Equal(t, ErrSendFailed().Error, evt.Error, "expected generic send failure")
	mockRepo.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func Test_handlePublish_persistenceFailure(t *testing.T) {
	mockRepo := &database.MockChatRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("GetChannelByExternalId", "chan-a").
		Return(database.Channel{Id: 1, ExternalId: "chan-a", Name: "general"}, nil).Once()
	mockRepo.On("CreateMessage", mock.Anything).
		Return(database.Message{}, errors.New("db down")).Once()

	gw, _ := newTestGateway(t, mockRepo)

	sender := newTestClient(gw, 1, "alice")
	member := newTestClient(gw, 2, "bob")
	gw.addClient(sender)
	gw.addClient(member)
	gw.handleJoin(joinRequest{client: sender, channelId: "chan-a"})
	gw.handleJoin(joinRequest{client: member, channelId: "chan-a"})

	gw.handlePublish(publishRequest{client: sender, msg: &SendMessage{ChannelId: "chan-a", Content: "hi"}})

	evt := receiveEvent(t, sender)
	assert.Equal(t, ErrSendFailed().Error, evt.Error, "expected failure notice for sender only")
	assertNoEvent(t, member)
}

func Test_handlePublish_broadcastsToMembers(t *testing.T) {
	now := time.Now().UTC()
	mockRepo := &database.MockChatRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("GetChannelByExternalId", "chan-general").
		Return(database.Channel{Id: 1, ExternalId: "chan-general", Name: "general"}, nil).Once()
	mockRepo.On("CreateMessage", database.CreateMessageParams{
		ChannelId: 1,
		UserId:    1,
		Username:  "alice",
		Content:   "hi",
	}).Return(database.Message{
		Id:        7,
		ChannelId: 1,
		UserId:    1,
		Username:  "alice",
		Content:   "hi",
		CreatedAt: now,
	}, nil).Once()

	gw, _ := newTestGateway(t, mockRepo)

	alice := newTestClient(gw, 1, "alice")
	bob := newTestClient(gw, 2, "bob")
	carol := newTestClient(gw, 3, "carol")
	for _, c := range []*Client{alice, bob, carol} {
		gw.addClient(c)
	}
	gw.handleJoin(joinRequest{client: alice, channelId: "chan-general"})
	gw.handleJoin(joinRequest{client: bob, channelId: "chan-general"})
	gw.handleJoin(joinRequest{client: carol, channelId: "chan-random"})

	gw.handlePublish(publishRequest{client: alice, msg: &SendMessage{ChannelId: "chan-general", Content: "hi"}})

	for _, c := range []*Client{alice, bob} {
		evt := receiveEvent(t, c)
		assert.NotNil(t, evt.Message, "expected a message event")
		assert.Equal(t, 7, evt.Message.Id, "expected persisted message id")
		assert.Equal(t, "chan-general", evt.Message.ChannelId, "expected the channel's external id")
		assert.Equal(t, "alice", evt.Message.Username, "expected the sender's username")
		assert.Equal(t, "hi", evt.Message.Content, "expected the message content")
		assert.Equal(t, now, evt.Message.Timestamp, "expected the persisted timestamp")
	}
	assertNoEvent(t, carol)
}

func Test_removeClient_idempotent(t *testing.T) {
	gw, mockStats := newTestGateway(t, &database.MockChatRepository{})

	c := newTestClient(gw, 1, "alice")
	gw.addClient(c)
	gw.handleJoin(joinRequest{client: c, channelId: "chan-a"})

	gw.removeClient(c)
	assert.NotContains(t, gw.clients, c, "expected client to be removed")
	assert.Empty(t, gw.membership, "expected membership to be released")

	gw.removeClient(c)
	assert.Empty(t, gw.membership, "expected second removal to be a no-op")
	mockStats.AssertNumberOfCalls(t, "Decr", 2) // one connection, one channel
}

func TestGateway_RunAndShutdown(t *testing.T) {
	gw, _ := newTestGateway(t, &database.MockChatRepository{})
	go gw.Run()

	c := newTestClient(gw, 1, "alice")
	gw.Register(c)
	gw.join(c, "chan-a")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, gw.Shutdown(ctx), "expected clean shutdown")

	select {
	case <-c.stop:
	default:
		t.Error("expected client to be stopped on shutdown")
	}
}

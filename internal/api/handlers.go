package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/geany-y/AIDrivenChat/internal/auth"
	"github.com/geany-y/AIDrivenChat/internal/database"
	"github.com/geany-y/AIDrivenChat/internal/gateway"
	"github.com/geany-y/AIDrivenChat/internal/types"
	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateChannelRequest struct {
	Name string `json:"name"`
}

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *ChatApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *ChatApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateAccountParams{
		Username:     req.Username,
		PasswordHash: pwdHash,
	}

	newUser, err := s.db.CreateAccount(params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.User{
		Id:        newUser.Id,
		Username:  newUser.Username,
		CreatedAt: newUser.CreatedAt,
	})
}

func (s *ChatApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Username == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByUsername(lr.Username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		// unknown username gets the same response as a bad password
		errResp := NewInvalidCredentialsError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewInvalidCredentialsError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.issuer.Issue(dbUser.Id, dbUser.Username)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, auth.TokenLifetime))

	s.writeJson(w, http.StatusOK, LoginResponse{Token: token})
}

func (s *ChatApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", 0))
	w.WriteHeader(http.StatusNoContent)
}

func (s *ChatApp) listChannels(w http.ResponseWriter, _ *http.Request) {
	dbChannels, err := s.db.ListChannels()
	if err != nil {
		s.log.Println("list channels:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var channels = make([]types.Channel, 0, len(dbChannels))
	for _, ch := range dbChannels {
		channels = append(channels, types.Channel{
			Id:   ch.ExternalId,
			Name: ch.Name,
		})
	}

	s.writeJson(w, http.StatusOK, channels)
}

func (s *ChatApp) createChannel(w http.ResponseWriter, r *http.Request) {
	var req CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := shortid.Generate()
	if err != nil {
		s.log.Println("generate short id:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newChannel, err := s.db.CreateChannel(database.CreateChannelParams{
		Name:       req.Name,
		ExternalId: sid,
	})
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Channel{
		Id:   newChannel.ExternalId,
		Name: newChannel.Name,
	})
}

func (s *ChatApp) getChannelMessages(w http.ResponseWriter, r *http.Request) {
	externalId := r.PathValue("channelId")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	channel, err := s.db.GetChannelByExternalId(externalId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages, err := s.db.ListMessages(channel.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toPublicMessages(channel.ExternalId, messages))
}

func (s *ChatApp) getThreadMessages(w http.ResponseWriter, r *http.Request) {
	externalId := r.PathValue("channelId")
	messageId, err := strconv.Atoi(r.PathValue("messageId"))
	if externalId == "" || err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	channel, err := s.db.GetChannelByExternalId(externalId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages, err := s.db.ListThreadMessages(messageId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toPublicMessages(channel.ExternalId, messages))
}

func toPublicMessages(channelExternalId string, messages []database.Message) []types.Message {
	var out = make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		var parentId *int
		if msg.ParentId.Valid {
			id := int(msg.ParentId.Int64)
			parentId = &id
		}

		out = append(out, types.Message{
			Id:        msg.Id,
			ChannelId: channelExternalId,
			UserId:    msg.UserId,
			Username:  msg.Username,
			Content:   msg.Content,
			ParentId:  parentId,
			Timestamp: msg.CreatedAt,
		})
	}

	return out
}

// serveWs authenticates and upgrades a websocket connection. The
// token is presented out-of-band at handshake time, either as a
// "token" query parameter or as the jwt cookie. A handshake without a
// token is rejected with a different reason than one with a bad
// token, and a rejected connection is never registered with the
// gateway.
func (s *ChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		if cookie, err := r.Cookie(tokenCookieKey); err == nil {
			tokenString = cookie.Value
		}
	}

	if tokenString == "" {
		errResp := NewMissingTokenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	session, err := s.issuer.Verify(tokenString)
	if err != nil {
		s.log.Printf("websocket token rejected: %v", err)
		errResp := NewInvalidTokenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := gateway.NewClient(session, conn, s.gw, s.log)

	s.gw.Register(client)
	go client.Write()
	go client.Read()
}

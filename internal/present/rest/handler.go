package rest

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/redchat/redchat"
	"github.com/redchat/redchat/internal/domain"
	"github.com/redchat/redchat/internal/present/rest/presenter"
	"github.com/redchat/redchat/internal/service"
	"github.com/redchat/redchat/internal/usecase"
)

type Handler struct {
	config  domain.Config
	user    *usecase.UserUsecase
	friend  *usecase.FriendUsecase
	message *usecase.MessageUsecase
	auth    *service.AuthService
	signal  *service.SignalService
}

func NewHandler(
	config domain.Config,
	user *usecase.UserUsecase,
	friend *usecase.FriendUsecase,
	message *usecase.MessageUsecase,
	auth *service.AuthService,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config:  config,
		user:    user,
		friend:  friend,
		message: message,
		auth:    auth,
		signal:  signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/auth/register", h.handleRegister)
	e.POST("/api/auth/login", h.handleLogin)
	e.GET("/api/auth/keys/:userId", h.handleGetPublicKey)
	e.GET("/api/auth/usernames", h.handleUsernames)
	e.GET("/api/friends", h.handleListFriends)
	e.POST("/api/friends/:userId", h.handleAddFriend)
	e.DELETE("/api/friends/:userId", h.handleRemoveFriend)
	e.GET("/api/messages/:userId", h.handleHistory)
	e.GET("/realtime", h.handleRealtime)
}

// requesterID resolves the authenticated identity set by the auth
// middleware, or "" for anonymous requests.
func requesterID(c echo.Context) string {
	id, _ := c.Request().Context().Value(domain.RequesterIdCtxKey).(string)
	return id
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req redchat.RegisterRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	user, err := h.user.Register(ctx, req.Username, req.Password, req.PublicKey)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return presenter.Conflict(c, err)
		}
		return presenter.BadRequest(c, err)
	}

	return presenter.OK(c, echo.Map{"id": user.ID, "username": user.Username})
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req redchat.LoginRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	user, err := h.user.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return presenter.Unauthorized(c, err.Error())
		}
		return presenter.InternalError(c, err)
	}

	token, err := h.auth.IssueToken(ctx, user.ID)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, redchat.LoginResponse{Token: token})
}

func (h *Handler) handleGetPublicKey(c echo.Context) error {
	ctx := c.Request().Context()

	if requesterID(c) == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	publicKey, err := h.user.GetPublicKey(ctx, c.Param("userId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "public key not found for user")
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, redchat.PublicKeyResponse{PublicKey: publicKey})
}

func (h *Handler) handleUsernames(c echo.Context) error {
	ctx := c.Request().Context()

	usernames, err := h.user.ListUsernames(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, usernames)
}

func (h *Handler) handleListFriends(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterID(c)
	if requester == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	users, err := h.friend.List(ctx, requester)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	friends := make([]redchat.Friend, 0, len(users))
	for _, user := range users {
		friends = append(friends, redchat.Friend{ID: user.ID, Username: user.Username})
	}
	return presenter.OK(c, friends)
}

func (h *Handler) handleAddFriend(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterID(c)
	if requester == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	err := h.friend.Add(ctx, requester, c.Param("userId"))
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return presenter.Conflict(c, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, err.Error())
		}
		return presenter.BadRequest(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleRemoveFriend(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterID(c)
	if requester == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	err := h.friend.Remove(ctx, requester, c.Param("userId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, err.Error())
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok"})
}

// handleHistory returns the ciphertext conversation with another user,
// ascending by SentAt. Envelopes are returned exactly as stored; the
// server cannot decrypt them.
func (h *Handler) handleHistory(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterID(c)
	if requester == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	messages, err := h.message.History(ctx, requester, c.Param("userId"))
	if err != nil {
		return presenter.InternalError(c, err)
	}

	items := make([]redchat.Message, 0, len(messages))
	for _, message := range messages {
		items = append(items, redchat.Message{
			ID:         message.ID,
			SenderID:   message.SenderID,
			ReceiverID: message.ReceiverID,
			Envelope:   message.Envelope,
			SentAt:     message.SentAt,
		})
	}
	return presenter.OK(c, items)
}

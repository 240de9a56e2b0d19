package service

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hearthkeep/hearthkeep/internal/middleware"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// ChatService handles group chat logs. Chats are created lazily: reading a
// group that has never chatted yields an empty log, courtesy of the chat
// store's recovery policy.
type ChatService struct {
	chats storage.ChatStore
}

// NewChatService creates a ChatService.
func NewChatService(chats storage.ChatStore) *ChatService {
	return &ChatService{chats: chats}
}

// Register mounts the chat routes on an authenticated group.
func (s *ChatService) Register(g *echo.Group) {
	g.GET("/groups/:name/chat", s.handleGetChat)
	g.POST("/groups/:name/chat", s.handlePostMessage)
}

func (s *ChatService) handleGetChat(c echo.Context) error {
	chat, err := s.chats.Load(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, chat)
}

type postMessageRequest struct {
	Text string `json:"text"`
}

func (s *ChatService) handlePostMessage(c echo.Context) error {
	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	ctx := c.Request().Context()
	groupName := c.Param("name")

	chat, err := s.chats.Load(ctx, groupName)
	if err != nil {
		return httpError(err)
	}
	message, err := chat.Append(middleware.Username(c), req.Text)
	if err != nil {
		return httpError(err)
	}
	if err := s.chats.Save(ctx, groupName, chat); err != nil {
		return httpError(err)
	}

	slog.Info("chat message posted", "group", groupName, "author", message.Author)
	return c.JSON(http.StatusCreated, message)
}

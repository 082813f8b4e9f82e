package app

import (
	"realtime_chat_service/internal/chat/domain"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// PathREST 由 REST API 送出的訊息
	PathREST = "rest"
	// PathWS 由 websocket 送出的訊息
	PathWS = "ws"
)

// ChatHandler chat REST handler
type ChatHandler struct {
	Dispatch *DispatchUseCase
	Chats    *ChatUseCase
}

// NewChatHandler create ChatHandler
func NewChatHandler(dispatch *DispatchUseCase, chats *ChatUseCase) *ChatHandler {
	return &ChatHandler{Dispatch: dispatch, Chats: chats}
}

// SendReq send message payload
type SendReq struct {
	Content    string `json:"content"`
	ReceiverID string `json:"receiverId"`
	GroupID    string `json:"groupId"`
}

// CreateGroupReq create group payload
type CreateGroupReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

// Send send message
// @Summary Send a message to a friend or a group
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body SendReq true "message"
// @Success 201 {object} map[string]domain.Message
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chat/send [post]
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var req SendReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	target, err := domain.ResolveTarget(req.GroupID, req.ReceiverID, "")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "receiverId or groupId required"})
	}

	msg, _, err := h.Dispatch.Dispatch(c.UserContext(), middlewares.MemberID(c), req.Content, target, PathREST)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

// ListChats list direct and group chats
// @Summary List conversations of current member
// @Tags Chat
// @Produce json
// @Success 200 {object} domain.ChatList
// @Router /chat/list/all [get]
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	list, err := h.Chats.ListChats(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// History chat history
// @Summary Chat info and message history
// @Tags Chat
// @Produce json
// @Param chatId path string true "friend id or group id"
// @Param type query string false "direct or group"
// @Success 200 {object} domain.ChatHistory
// @Failure 404 {object} map[string]string
// @Router /chat/{chatId} [get]
func (h *ChatHandler) History(c *fiber.Ctx) error {
	history, err := h.Chats.History(c.UserContext(), middlewares.MemberID(c), c.Params("chatId"), domain.ChatType(c.Query("type")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}

// CreateGroup create group
// @Summary Create a group chat
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body CreateGroupReq true "group"
// @Success 201 {object} map[string]domain.Group
// @Failure 400 {object} map[string]string
// @Router /chat/groups [post]
func (h *ChatHandler) CreateGroup(c *fiber.Ctx) error {
	var req CreateGroupReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	group, err := h.Chats.CreateGroup(c.UserContext(), middlewares.MemberID(c), req.Name, req.Description, req.Members)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group": group})
}

func respondError(c *fiber.Ctx, err error) error {
	status := errprocess.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Log.Error("chat request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": errprocess.PublicMessage(err)})
}

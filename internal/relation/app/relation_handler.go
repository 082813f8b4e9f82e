package app

import (
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RelationHandler friends REST handler
type RelationHandler struct {
	Usecase *RelationUseCase
}

// NewRelationHandler create RelationHandler
func NewRelationHandler(uc *RelationUseCase) *RelationHandler {
	return &RelationHandler{Usecase: uc}
}

// AddFriendReq add friend payload
type AddFriendReq struct {
	Phone string `json:"phone"`
}

// ListFriends list friends
// @Summary List friends of current member
// @Tags Friends
// @Produce json
// @Success 200 {object} map[string][]domain.PublicProfile
// @Router /friends [get]
func (h *RelationHandler) ListFriends(c *fiber.Ctx) error {
	friends, err := h.Usecase.ListFriends(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"friends": friends})
}

// AddFriend add friend by phone
// @Summary Add a friend by phone
// @Tags Friends
// @Accept json
// @Produce json
// @Param request body AddFriendReq true "friend phone"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /friends/add [post]
func (h *RelationHandler) AddFriend(c *fiber.Ctx) error {
	var req AddFriendReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	res, err := h.Usecase.AddFriend(c.UserContext(), middlewares.MemberID(c), req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Friend added",
		"friend":  res.Friend,
	})
}

// RemoveFriend remove friend
// @Summary Remove a friend
// @Tags Friends
// @Produce json
// @Param friendId path string true "friend member id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /friends/remove/{friendId} [delete]
func (h *RelationHandler) RemoveFriend(c *fiber.Ctx) error {
	if _, err := h.Usecase.RemoveFriend(c.UserContext(), middlewares.MemberID(c), c.Params("friendId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend removed successfully"})
}

func respondError(c *fiber.Ctx, err error) error {
	status := errprocess.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Log.Error("friends request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": errprocess.PublicMessage(err)})
}

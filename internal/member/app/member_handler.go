package app

import (
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler member REST handler
type MemberHandler struct {
	Usecase MemberUseCase
}

// NewMemberHandler create MemberHandler
func NewMemberHandler(uc MemberUseCase) *MemberHandler {
	return &MemberHandler{Usecase: uc}
}

// RegisterReq register payload
type RegisterReq struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginReq login payload
type LoginReq struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register member register
// @Summary Register a member
// @Tags Member
// @Accept json
// @Produce json
// @Param request body RegisterReq true "register payload"
// @Success 201 {object} domain.PublicProfile
// @Failure 400 {object} map[string]string
// @Router /member/register [post]
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	member, err := h.Usecase.Register(c.UserContext(), req.Name, req.Phone, req.Password)
	if err != nil {
		return c.Status(errprocess.HTTPStatus(err)).JSON(fiber.Map{"error": errprocess.PublicMessage(err)})
	}
	return c.Status(fiber.StatusCreated).JSON(member.Profile())
}

// Login member login
// @Summary Login with phone and password
// @Tags Member
// @Accept json
// @Produce json
// @Param request body LoginReq true "login payload"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /member/login [post]
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	t, err := h.Usecase.Login(c.UserContext(), req.Phone, req.Password)
	if err != nil {
		return c.Status(errprocess.HTTPStatus(err)).JSON(fiber.Map{"error": errprocess.PublicMessage(err)})
	}
	c.Cookie(&fiber.Cookie{Name: middlewares.CookieToken, Value: t, HTTPOnly: true})
	return c.JSON(fiber.Map{"token": t})
}

// Me current member profile
// @Summary Current member
// @Tags Member
// @Produce json
// @Success 200 {object} domain.PublicProfile
// @Router /member/me [get]
func (h *MemberHandler) Me(c *fiber.Ctx) error {
	profile, err := h.Usecase.Profile(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return c.Status(errprocess.HTTPStatus(err)).JSON(fiber.Map{"error": errprocess.PublicMessage(err)})
	}
	return c.JSON(profile)
}

package router

import (
	"context"

	"realtime_chat_service/internal/api/handlers"
	chatapp "realtime_chat_service/internal/chat/app"
	memberapp "realtime_chat_service/internal/member/app"
	realtimeapp "realtime_chat_service/internal/realtime/app"
	relationapp "realtime_chat_service/internal/relation/app"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers chat service 所有 handler
type Handlers struct {
	Member    *memberapp.MemberHandler
	Relation  *relationapp.RelationHandler
	Chat      *chatapp.ChatHandler
	Websocket *realtimeapp.WebsocketHandler
}

// RegisterRoutes 註冊所有路由
// @title Realtime Chat Service API
// @version 1.0
// @description API documentation for Realtime Chat Service
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func RegisterRoutes(ctx context.Context, app *fiber.App, verifier middlewares.TokenVerifier, h Handlers) {
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/", handlers.ConnectCheck)
	app.Post("/debug", handlers.DebugLogFlag)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	auth := middlewares.JWTMiddleware(verifier)

	memberRoutes := app.Group("/member")
	memberRoutes.Post("/register", h.Member.Register)
	memberRoutes.Post("/login", h.Member.Login)
	memberRoutes.Get("/me", auth, h.Member.Me)

	friendRoutes := app.Group("/friends", auth)
	friendRoutes.Get("/", h.Relation.ListFriends)
	friendRoutes.Post("/add", h.Relation.AddFriend)
	friendRoutes.Delete("/remove/:friendId", h.Relation.RemoveFriend)

	chatRoutes := app.Group("/chat", auth)
	chatRoutes.Post("/send", h.Chat.Send)
	chatRoutes.Get("/list/all", h.Chat.ListChats)
	chatRoutes.Post("/groups", h.Chat.CreateGroup)
	chatRoutes.Get("/:chatId", h.Chat.History)

	// token 驗證在 upgrade 之前, 失敗直接回 401
	app.Use("/ws", auth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		h.Websocket.HandleConnection(ctx, conn)
	}))
}

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatApp(b MessageBroadcaster) *fiber.App {
	members := testMembers()
	groups := testGroups()
	msgs := repository.NewMemoryMessageRepository()
	h := NewChatHandler(
		NewDispatchUseCase(msgs, groups, members, b),
		NewChatUseCase(msgs, groups, members),
	)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middlewares.TokenMemberID, c.Get("X-Test-User"))
		return c.Next()
	})
	app.Post("/chat/send", h.Send)
	app.Get("/chat/list/all", h.ListChats)
	app.Post("/chat/groups", h.CreateGroup)
	app.Get("/chat/:chatId", h.History)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, user, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", user)
	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestChatHandler(t *testing.T) {
	logger.SetNewNop()
	b := &recordingBroadcaster{}
	app := newChatApp(b)

	t.Run("send 回傳 201 並推播到收件者 room", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/chat/send", "alice", `{"content":"hi","receiverId":"bob"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var msg domain.Message
		require.NoError(t, json.Unmarshal(body["message"], &msg))
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, "Alice", msg.Sender.Name)
		assert.Equal(t, []broadcast{{Room: "bob", MsgID: msg.ID}}, b.all())
	})

	t.Run("send 缺少收件者", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/chat/send", "alice", `{"content":"hi"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body["error"]), "receiverId or groupId required")
	})

	t.Run("send 給不存在的群組", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/chat/send", "alice", `{"content":"hi","groupId":"nope"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("history", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/chat/alice?type=direct", "bob", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `1`, string(body["totalMessages"]))
		assert.JSONEq(t, `"direct"`, string(body["type"]))
	})

	t.Run("list", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/chat/list/all", "bob", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var direct []domain.DirectChat
		require.NoError(t, json.Unmarshal(body["direct"], &direct))
		require.Len(t, direct, 1)
		assert.Equal(t, "alice", direct[0].ID)
	})

	t.Run("create group", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/chat/groups", "alice", `{"name":"Trip","members":["carol"]}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var g domain.Group
		require.NoError(t, json.Unmarshal(body["group"], &g))
		assert.Equal(t, []string{"alice", "carol"}, g.Members)
	})
}

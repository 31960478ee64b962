package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pulse/internal/config"
	"pulse/internal/database"
	"pulse/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApp builds a full server on an in-memory database, without Redis.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := database.ConnectTest()
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret: "integration-test-secret-32-bytes!",
		Env:       "test",
	}
	srv, err := server.NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func doJSONList(t *testing.T, app *fiber.App, path, token string) (int, []interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var list []interface{}
	if len(raw) > 0 && raw[0] == '[' {
		require.NoError(t, json.Unmarshal(raw, &list))
	}
	return resp.StatusCode, list
}

// signup registers and logs a user in, returning their token and id.
func signup(t *testing.T, app *fiber.App, username string) (string, uint) {
	t.Helper()

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "IntegrationPass1!",
	})
	require.Equal(t, fiber.StatusCreated, status, "register %s: %v", username, body)
	id := uint(body["id"].(float64))

	status, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": username,
		"password":   "IntegrationPass1!",
	})
	require.Equal(t, fiber.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token, id
}

func TestAPIFlow(t *testing.T) {
	app := newTestApp(t)

	aliceToken, _ := signup(t, app, "alice")
	bobToken, bobID := signup(t, app, "bob")

	t.Run("unauthenticated requests are rejected", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodGet, "/api/users/me", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("own account", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodGet, "/api/users/me", aliceToken, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "alice@example.com", body["email"])
	})

	t.Run("other accounts are public views", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/api/users/%d", bobID), aliceToken, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "bob", body["username"])
		_, leaked := body["email"]
		assert.False(t, leaked)

		// No live socket, so the profile reports offline.
		assert.Equal(t, false, body["online"])
	})

	var roomID, channelID float64
	t.Run("room creation", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPost, "/api/rooms", aliceToken,
			map[string]string{"name": "lounge"})
		require.Equal(t, fiber.StatusCreated, status)
		roomID = body["id"].(float64)

		status, channels := doJSONList(t, app,
			fmt.Sprintf("/api/rooms/%.0f/channels", roomID), aliceToken)
		require.Equal(t, fiber.StatusOK, status)
		require.Len(t, channels, 1)
		channelID = channels[0].(map[string]interface{})["id"].(float64)
	})

	t.Run("room rename", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPut,
			fmt.Sprintf("/api/rooms/%.0f", roomID), aliceToken,
			map[string]string{"name": "den"})
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "den", body["name"])

		status, _ = doJSON(t, app, http.MethodPut,
			fmt.Sprintf("/api/rooms/%.0f", roomID), bobToken,
			map[string]string{"name": "mine"})
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("invite and join", func(t *testing.T) {
		status, invite := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/rooms/%.0f/invites", roomID), aliceToken, nil)
		require.Equal(t, fiber.StatusCreated, status)
		code := invite["code"].(string)

		status, _ = doJSON(t, app, http.MethodPost, "/api/rooms/join/"+code, bobToken, nil)
		require.Equal(t, fiber.StatusOK, status)

		status, members := doJSONList(t, app,
			fmt.Sprintf("/api/rooms/%.0f/members", roomID), bobToken)
		require.Equal(t, fiber.StatusOK, status)
		assert.Len(t, members, 2)
	})

	t.Run("messages", func(t *testing.T) {
		status, msg := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/channels/%.0f/messages", channelID), bobToken,
			map[string]string{"content": "hello room"})
		require.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "hello room", msg["content"])

		status, messages := doJSONList(t, app,
			fmt.Sprintf("/api/channels/%.0f/messages", channelID), aliceToken)
		require.Equal(t, fiber.StatusOK, status)
		assert.Len(t, messages, 1)
	})

	t.Run("friendship and DM", func(t *testing.T) {
		status, f := doJSON(t, app, http.MethodPost, "/api/friendships", aliceToken,
			map[string]string{"username": "bob"})
		require.Equal(t, fiber.StatusCreated, status)
		fID := f["id"].(float64)

		// Alice cannot accept her own request.
		status, _ = doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/friendships/%.0f/accept", fID), aliceToken, nil)
		assert.Equal(t, fiber.StatusForbidden, status)

		status, _ = doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/friendships/%.0f/accept", fID), bobToken, nil)
		require.Equal(t, fiber.StatusOK, status)

		status, dm := doJSON(t, app, http.MethodPost, "/api/dms", aliceToken,
			map[string]interface{}{"userId": bobID})
		require.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, true, dm["dm"])

		// A second DM for the pair conflicts.
		status, _ = doJSON(t, app, http.MethodPost, "/api/dms", bobToken,
			map[string]interface{}{"userId": aliceID(t, app, aliceToken)})
		assert.Equal(t, fiber.StatusConflict, status)
	})

	t.Run("sessions", func(t *testing.T) {
		status, sessions := doJSONList(t, app, "/api/sessions", aliceToken)
		require.Equal(t, fiber.StatusOK, status)
		require.NotEmpty(t, sessions)
		// Tokens never appear in the session list.
		for _, s := range sessions {
			_, leaked := s.(map[string]interface{})["token"]
			assert.False(t, leaked)
		}
	})

	t.Run("settings round trip", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodPut, "/api/settings", aliceToken,
			map[string]interface{}{"appearance": map[string]string{"theme": "light"}})
		require.Equal(t, fiber.StatusOK, status)

		status, body := doJSON(t, app, http.MethodGet, "/api/settings", aliceToken, nil)
		require.Equal(t, fiber.StatusOK, status)
		settings := body["settings"].(map[string]interface{})
		appearance := settings["appearance"].(map[string]interface{})
		assert.Equal(t, "light", appearance["theme"])
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		extraToken, _ := loginAgain(t, app, "alice")
		status, _ := doJSON(t, app, http.MethodDelete, "/api/sessions/current", extraToken, nil)
		require.Equal(t, fiber.StatusOK, status)

		status, _ = doJSON(t, app, http.MethodGet, "/api/users/me", extraToken, nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func aliceID(t *testing.T, app *fiber.App, token string) uint {
	t.Helper()
	status, body := doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	return uint(body["id"].(float64))
}

// loginAgain logs the user in as a different device, so a distinct session
// is created rather than the first one being reused.
func loginAgain(t *testing.T, app *fiber.App, username string) (string, uint) {
	t.Helper()
	raw, err := json.Marshal(map[string]string{
		"identifier": username,
		"password":   "IntegrationPass1!",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "second-device")
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), uint(user["id"].(float64))
}

package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(EnsurePlayerID())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("playerID").(string))
	})
	app.Get("/ws/game/:gameId", WebSocketUpgrade("gameId"), func(c *fiber.Ctx) error {
		return c.SendString("upgrading " + c.Params("gameId"))
	})
	return app
}

func TestEnsurePlayerID(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"header", "/whoami", "alice", fiber.StatusOK, "alice"},
		{"query", "/whoami?playerId=bob", "", fiber.StatusOK, "bob"},
		{"header wins", "/whoami?playerId=bob", "alice", fiber.StatusOK, "alice"},
		{"missing", "/whoami", "", fiber.StatusUnauthorized, ""},
	}
	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-Player-ID", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d; want %d", resp.StatusCode, tt.wantStatus)
			}
			body, _ := io.ReadAll(resp.Body)
			if tt.wantBody != "" && !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %q; want %q", body, tt.wantBody)
			}
		})
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/ws/game/g1", nil)
	req.Header.Set("X-Player-ID", "alice")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("plain GET status = %d; want %d", resp.StatusCode, fiber.StatusUpgradeRequired)
	}

	req = httptest.NewRequest("GET", "/ws/game/g1", nil)
	req.Header.Set("X-Player-ID", "alice")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("upgrade status = %d; want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestEnsurePlayerIDOutlivesRequest(t *testing.T) {
	var seen []string
	app := fiber.New()
	app.Use(EnsurePlayerID())
	app.Get("/seat", func(c *fiber.Ctx) error {
		seen = append(seen, c.Locals("playerID").(string))
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, id := range []string{"alice", "bob", "mallory"} {
		req := httptest.NewRequest("GET", "/seat", nil)
		req.Header.Set("X-Player-ID", id)
		if _, err := app.Test(req); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []string{"carol", "dave"} {
		if _, err := app.Test(httptest.NewRequest("GET", "/seat?playerId="+id, nil)); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"alice", "bob", "mallory", "carol", "dave"}
	if len(seen) != len(want) {
		t.Fatalf("seen %d IDs; want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("ID %d = %q after later requests; want %q", i, seen[i], want[i])
		}
	}
}

package handlers

import (
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuthHandler is a minimal credential check: one configured account, opaque
// session tokens held in memory. Sessions do not survive a restart, same as
// the jobs they guard.
type AuthHandler struct {
	username string
	password string

	mu       sync.Mutex
	sessions map[string]struct{}
}

// NewAuthHandler creates the handler for the configured account.
func NewAuthHandler(username, password string) *AuthHandler {
	return &AuthHandler{
		username: username,
		password: password,
		sessions: make(map[string]struct{}),
	}
}

// LoginRequest represents the request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the credentials and issues a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) == 1
	if !userOK || !passOK {
		return c.Status(401).JSON(fiber.Map{
			"error": "Invalid credentials",
			"code":  "ERR_BAD_CREDENTIALS",
		})
	}

	token := uuid.New().String()
	h.mu.Lock()
	h.sessions[token] = struct{}{}
	h.mu.Unlock()

	return c.JSON(fiber.Map{"token": token})
}

// Middleware rejects requests without a valid Bearer token.
func (h *AuthHandler) Middleware(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return c.Status(401).JSON(fiber.Map{
			"error": "Missing session token",
			"code":  "ERR_NO_TOKEN",
		})
	}

	h.mu.Lock()
	_, ok := h.sessions[token]
	h.mu.Unlock()
	if !ok {
		return c.Status(401).JSON(fiber.Map{
			"error": "Invalid session token",
			"code":  "ERR_BAD_TOKEN",
		})
	}

	return c.Next()
}

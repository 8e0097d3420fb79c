package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxUserID is the gin context key holding the authenticated user id.
const ctxUserID = "userId"

const (
	errMissingAuth = "missing Authorization header"
	errBadAuth     = "invalid Authorization header format"
	errBadToken    = "invalid or expired token"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		h.abortUnauthorized(c, errMissingAuth)
		return
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		h.abortUnauthorized(c, errBadAuth)
		return
	}

	h.authenticate(c, strings.TrimSpace(token))
}

// streamAuthMiddleware accepts the bearer header or, since browsers cannot
// set headers on a WebSocket handshake, a ?token= query parameter.
func (h *Handler) streamAuthMiddleware(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			h.authenticate(c, token)
			return
		}
	}
	h.userIdMiddleware(c)
}

func (h *Handler) authenticate(c *gin.Context, token string) {
	userId, err := h.services.ParseToken(token)
	if err != nil {
		h.abortUnauthorized(c, errBadToken)
		return
	}

	c.Set(ctxUserID, userId)
	c.Next()
}

func (h *Handler) abortUnauthorized(c *gin.Context, msg string) {
	jsonError(c, http.StatusUnauthorized, msg)
	c.Abort()
}

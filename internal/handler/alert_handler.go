package handler

import (
	"clinical-intelligence-be/internal/pkg/logger"
	internalWS "clinical-intelligence-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AlertHandler streams high-risk session alerts of one organization over a websocket.
type AlertHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewAlertHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *AlertHandler {
	return &AlertHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (h *AlertHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/alerts", h.ServeWs)
}

// ServeWs upgrades GET /ws/alerts?org_id=...&token=... . Browsers cannot set headers
// on a websocket handshake, so the token may come as a query parameter.
func (h *AlertHandler) ServeWs(c *fiber.Ctx) error {
	orgId := c.Query("org_id")
	if orgId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "org_id query parameter is required")
	}

	if h.jwtSecret != "" {
		if err := h.authorize(c, orgId); err != nil {
			return err
		}
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ALERT_WS", "Websocket session started", map[string]interface{}{"org_id": orgId})
		internalWS.ServeWs(h.hub, conn, orgId)
		h.logger.Info("ALERT_WS", "Websocket session ended", map[string]interface{}{"org_id": orgId})
	})(c)
}

func (h *AlertHandler) authorize(c *fiber.Ctx, orgId string) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		if authHeader := c.Get("Authorization"); len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		h.logger.Warn("ALERT_WS", "Invalid token in websocket handshake", map[string]interface{}{"org_id": orgId})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
	}
	if claim, _ := claims["org_id"].(string); claim != "" && claim != orgId {
		return fiber.NewError(fiber.StatusForbidden, "organization not permitted for this token")
	}
	return nil
}

package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/internal/pkg/serverutils"
	internalWS "clinical-intelligence-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewAlertHandler(internalWS.NewHub(nil, logger.NewNopLogger()), secret, logger.NewNopLogger()).RegisterRoutes(app)
	return app
}

func token(t *testing.T, secret, orgId string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"org_id": orgId,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestServeWs_Handshake(t *testing.T) {
	const secret = "ws-secret"
	tests := []struct {
		name   string
		secret string
		path   string
		want   int
	}{
		{"missing org", "", "/ws/alerts", fiber.StatusBadRequest},
		{"plain http", "", "/ws/alerts?org_id=org-a", fiber.StatusUpgradeRequired},
		{"missing token", secret, "/ws/alerts?org_id=org-a", fiber.StatusUnauthorized},
		{"bad token", secret, "/ws/alerts?org_id=org-a&token=" + token(t, "other", "org-a"), fiber.StatusUnauthorized},
		{"other org", secret, "/ws/alerts?org_id=org-a&token=" + token(t, secret, "org-b"), fiber.StatusForbidden},
		{"valid token", secret, "/ws/alerts?org_id=org-a&token=" + token(t, secret, "org-a"), fiber.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newApp(tt.secret).Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

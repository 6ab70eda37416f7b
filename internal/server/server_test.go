package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinical-intelligence-be/internal/bootstrap"
	"clinical-intelligence-be/internal/config"
	"clinical-intelligence-be/internal/controller"
	"clinical-intelligence-be/internal/dto"
	"clinical-intelligence-be/internal/service"
	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/clinical/orgconfig"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	processErr error
	lastOrg    string
}

func (s *stubSessions) Process(_ context.Context, req *dto.ProcessSessionRequest) (*clinical.PipelineResult, error) {
	s.lastOrg = req.OrganizationId
	if s.processErr != nil {
		return nil, s.processErr
	}
	return clinical.NewDegradedResult("raw", "", "draft: not json", clinical.SentinelMarkers()), nil
}

func (s *stubSessions) Save(context.Context, *dto.SaveSessionRequest) (*dto.SaveSessionResponse, error) {
	return &dto.SaveSessionResponse{Status: "saved"}, nil
}

func (s *stubSessions) GetHistory(context.Context, string, string, int, int) ([]*dto.HistoricalSessionResponse, error) {
	return []*dto.HistoricalSessionResponse{}, nil
}

type stubKnowledge struct{}

func (stubKnowledge) ListOrganizations(context.Context) ([]*dto.OrganizationResponse, error) {
	return []*dto.OrganizationResponse{{Id: "org-a", PreferredSchema: "SOAP"}}, nil
}

func (stubKnowledge) SyncKnowledgeBase(_ context.Context, orgId string) (*dto.SyncKnowledgeBaseResponse, error) {
	if orgId != "org-a" {
		return nil, orgconfig.ErrUnknownOrganization
	}
	return &dto.SyncKnowledgeBaseResponse{Status: "ok", OrganizationId: orgId, Chunks: 2}, nil
}

type stubAdmin struct{}

func (stubAdmin) GetSystemLogs(context.Context, int, int, string, string) ([]*dto.LogListResponse, error) {
	return []*dto.LogListResponse{}, nil
}

func (stubAdmin) GetLogDetail(context.Context, string) (*dto.LogDetailResponse, error) {
	return nil, io.EOF
}

var (
	_ service.ISessionService   = &stubSessions{}
	_ service.IKnowledgeService = stubKnowledge{}
	_ service.IAdminService     = stubAdmin{}
)

func newTestServer(secret string, sessions *stubSessions) *Server {
	cfg := &config.Config{
		App:      config.AppConfig{Port: "0", CorsAllowedOrigins: "*"},
		Security: config.SecurityConfig{JWTSecret: secret},
	}
	return New(cfg, &bootstrap.Container{
		SessionController: controller.NewSessionController(sessions),
		OrgController:     controller.NewOrgController(stubKnowledge{}),
		AdminController:   controller.NewAdminController(stubAdmin{}),
	})
}

func do(t *testing.T, s *Server, method, path, body, token string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	code, body := do(t, newTestServer("", &stubSessions{}), "GET", "/", "", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, HealthStatus, body["status"])
}

func TestProcessSession(t *testing.T) {
	sessions := &stubSessions{}
	s := newTestServer("", sessions)

	code, body := do(t, s, "POST", "/api/session/v1/process", `{"org_id":"org-a","client_id":"c1","raw_text":"hello"}`, "")
	require.Equal(t, 200, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, clinical.MergeFailedIndicator, data["error"])
	assert.Equal(t, "raw", data["scribe_raw"])

	code, body = do(t, s, "POST", "/api/session/v1/process", `{"org_id":"org-a"}`, "")
	assert.Equal(t, 400, code)
	assert.Equal(t, false, body["success"])

	sessions.processErr = clinical.ErrGenerationUnavailable
	code, _ = do(t, s, "POST", "/api/session/v1/process", `{"org_id":"org-a","client_id":"c1","raw_text":"hello"}`, "")
	assert.Equal(t, 503, code)
}

func TestSyncKnowledgeBase(t *testing.T) {
	s := newTestServer("", &stubSessions{})

	code, body := do(t, s, "POST", "/api/org/v1/org-a/sync-kb", "", "")
	require.Equal(t, 200, code)
	assert.EqualValues(t, 2, body["data"].(map[string]interface{})["chunks"])

	code, _ = do(t, s, "POST", "/api/org/v1/org-x/sync-kb", "", "")
	assert.Equal(t, 404, code)
}

func TestHistoryRequiresOrg(t *testing.T) {
	code, _ := do(t, newTestServer("", &stubSessions{}), "GET", "/api/client/v1/c1/history", "", "")
	assert.Equal(t, 400, code)
}

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"
	sessions := &stubSessions{}
	s := newTestServer(secret, sessions)
	body := `{"org_id":"org-a","client_id":"c1","raw_text":"hello"}`

	code, _ := do(t, s, "POST", "/api/session/v1/process", body, "")
	assert.Equal(t, 401, code)

	code, _ = do(t, s, "POST", "/api/session/v1/process", body, sign(t, "wrong", jwt.MapClaims{"user_id": "u"}))
	assert.Equal(t, 401, code)

	code, _ = do(t, s, "POST", "/api/session/v1/process", body, sign(t, secret, jwt.MapClaims{"user_id": "u", "org_id": "org-b"}))
	assert.Equal(t, 403, code)
	assert.Empty(t, sessions.lastOrg)

	code, _ = do(t, s, "POST", "/api/session/v1/process", body, sign(t, secret, jwt.MapClaims{"user_id": "u", "org_id": "org-a"}))
	assert.Equal(t, 200, code)
	assert.Equal(t, "org-a", sessions.lastOrg)

	code, _ = do(t, s, "GET", "/", "", "")
	assert.Equal(t, 200, code)
}

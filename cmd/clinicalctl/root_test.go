package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clinical-intelligence-be/internal/config"
	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/clinical/agent"
	"clinical-intelligence-be/pkg/clinical/markers"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama answers chat and embedding calls the way a well-behaved local model would.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embeddings":
			_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
		case "/api/chat":
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			prompt := req.Messages[len(req.Messages)-1].Content

			var reply string
			switch {
			case strings.Contains(prompt, agent.AuditorHeader):
				reply = `{"liability_flags":[],"clinical_clarity_score":0.8,"suggestions":["document safety plan"],"risk_level":"Medium"}`
			case strings.Contains(prompt, markers.AnalystHeader):
				reply = `{"primary_themes":["sleep","work stress"],"emotional_intensity":6,"goal_progress":5,"risk_score":3}`
			default:
				reply = `{"subjective":"s","objective":"o","assessment":"a","plan":"p","risk_assessment":"r"}`
			}
			out, _ := json.Marshal(map[string]interface{}{
				"message": map[string]string{"role": "assistant", "content": reply},
				"done":    true,
			})
			_, _ = w.Write(out)
		default:
			http.NotFound(w, r)
		}
	}))
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func baseArgs(t *testing.T, ollamaURL string) []string {
	dir := t.TempDir()
	return []string{
		"--memory",
		"--ollama-url", ollamaURL,
		"--org-root", filepath.Join(dir, "orgs"),
		"--kb-root", filepath.Join(dir, "kb"),
		"--log-file", filepath.Join(dir, "clinicalctl.log"),
	}
}

func TestProcessCommand(t *testing.T) {
	srv := fakeOllama(t)
	defer srv.Close()

	args := append([]string{"process", "--org", "org-a", "--client", "client-1"}, baseArgs(t, srv.URL)...)
	stdout, stderr, err := run(t, "Client reports poor sleep and stress at work.", args...)
	require.NoError(t, err)

	var result clinical.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.False(t, result.IsDegraded())
	assert.Equal(t, "s", result.StructuredNote.Subjective)
	assert.Equal(t, clinical.RiskMedium, result.RiskLevel())
	assert.Equal(t, []string{"sleep", "work stress"}, result.Markers.PrimaryThemes)
	assert.Contains(t, stderr, "risk level Medium")
}

func TestProcessCommand_RequiresOrg(t *testing.T) {
	_, _, err := run(t, "text", "process", "--client", "c1", "--memory")
	assert.Error(t, err)
}

func TestOrgsCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "org-b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "org-a"), 0o755))

	stdout, _, err := run(t, "", "orgs", "--org-root", root, "--log-file", filepath.Join(t.TempDir(), "log"))
	require.NoError(t, err)
	assert.Equal(t, "org-a\norg-b\n", stdout)
}

func TestApplyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinicalctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[llm]
provider = "gemini"
model = "gemini-2.0-flash"

[org]
unknown = "reject"
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	v.Set("memory", true)

	cfg := &config.Config{}
	cfg.Ai.LLMProvider = "ollama"
	cfg.Retrieval.Store = "postgres"
	applyOverrides(v, cfg)

	assert.Equal(t, "gemini", cfg.Ai.LLMProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Ai.LLMModel)
	assert.Equal(t, "reject", cfg.Pipeline.UnknownOrgPolicy)
	assert.Equal(t, "memory", cfg.Retrieval.Store)
	assert.Equal(t, "memory", cfg.Knowledge.IndexStore)
}

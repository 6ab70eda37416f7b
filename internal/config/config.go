package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Pipeline  PipelineConfig
	Knowledge KnowledgeConfig
	Retrieval RetrievalConfig
	Security  SecurityConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EmbedTopic         string // watermill topic for session embedding jobs
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider        string // "ollama", "gemini" or "huggingface"
	LLMModel           string
	EmbeddingProvider  string // "ollama" or "gemini"
	EmbeddingModel     string
	OllamaBaseURL      string
	GeminiAPIKey       string
	HuggingFaceBaseURL string
	HuggingFaceAPIKey  string
	RequestTimeout     time.Duration
}

type PipelineConfig struct {
	HistoryLimit     int
	RequireHistory   bool
	StageTimeout     time.Duration
	UnknownOrgPolicy string // "default" or "reject"
}

type KnowledgeConfig struct {
	DocumentsRoot string
	OrgConfigRoot string
	TopK          int
	IndexStore    string // "postgres" or "memory"
	RedisLock     bool
	PDFLicenseKey string
}

type RetrievalConfig struct {
	Store     string // "postgres", "chroma" or "memory"
	ChromaURL string
}

type SecurityConfig struct {
	EncryptionKeyFile string
	JWTSecret         string // empty disables auth on clinical routes
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			EmbedTopic:         getEnv("EMBED_SESSION_TOPIC_NAME", "EMBED_SESSION_CONTENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GeminiAPIKey:       getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", ""),
			HuggingFaceAPIKey:  getEnv("HUGGINGFACE_API_KEY", ""),
			RequestTimeout:     getEnvAsDuration("LLM_REQUEST_TIMEOUT", 240*time.Second),
		},
		Pipeline: PipelineConfig{
			HistoryLimit:     getEnvAsInt("PIPELINE_HISTORY_LIMIT", 2),
			RequireHistory:   getEnvAsBool("PIPELINE_REQUIRE_HISTORY", false),
			StageTimeout:     getEnvAsDuration("PIPELINE_STAGE_TIMEOUT", 240*time.Second),
			UnknownOrgPolicy: getEnv("ORG_UNKNOWN_POLICY", "default"),
		},
		Knowledge: KnowledgeConfig{
			DocumentsRoot: getEnv("KB_DOCUMENTS_ROOT", "data/knowledge_base"),
			OrgConfigRoot: getEnv("ORG_CONFIG_ROOT", "data/orgs"),
			TopK:          getEnvAsInt("KB_TOP_K", 3),
			IndexStore:    getEnv("KB_INDEX_STORE", "postgres"),
			RedisLock:     getEnvAsBool("KB_REDIS_LOCK", false),
			PDFLicenseKey: getEnv("UNIDOC_LICENSE_API_KEY", ""),
		},
		Retrieval: RetrievalConfig{
			Store:     getEnv("RETRIEVAL_STORE", "postgres"),
			ChromaURL: getEnv("CHROMA_URL", "http://localhost:8000"),
		},
		Security: SecurityConfig{
			EncryptionKeyFile: getEnv("ENCRYPTION_KEY_FILE", "secret.key"),
			JWTSecret:         getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("240").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

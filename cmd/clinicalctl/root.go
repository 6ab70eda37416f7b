package main

import (
	"context"
	"fmt"
	"strings"

	"clinical-intelligence-be/internal/bootstrap"
	"clinical-intelligence-be/internal/config"
	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/database"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// overrides maps viper keys onto the env-loaded config. Keys come from flags,
// CLINICAL_* environment variables or the --config file, in that order of precedence.
var overrides = map[string]func(*config.Config, string){
	"db":                func(c *config.Config, v string) { c.Database.Connection = v },
	"llm.provider":      func(c *config.Config, v string) { c.Ai.LLMProvider = v },
	"llm.model":         func(c *config.Config, v string) { c.Ai.LLMModel = v },
	"ollama.url":        func(c *config.Config, v string) { c.Ai.OllamaBaseURL = v },
	"retrieval.store":   func(c *config.Config, v string) { c.Retrieval.Store = v },
	"kb.store":          func(c *config.Config, v string) { c.Knowledge.IndexStore = v },
	"kb.root":           func(c *config.Config, v string) { c.Knowledge.DocumentsRoot = v },
	"org.root":          func(c *config.Config, v string) { c.Knowledge.OrgConfigRoot = v },
	"org.unknown":       func(c *config.Config, v string) { c.Pipeline.UnknownOrgPolicy = v },
	"log.file":          func(c *config.Config, v string) { c.App.LogFilePath = v },
	"security.key-file": func(c *config.Config, v string) { c.Security.EncryptionKeyFile = v },
}

type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *logger.ZapLogger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "clinicalctl",
		Short:         "Run clinical sessions through the pipeline and manage organization knowledge bases",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (toml, yaml or json)")
	flags.String("db", "", "postgres connection string")
	flags.String("llm-provider", "", "ollama, gemini or huggingface")
	flags.String("llm-model", "", "generation model name")
	flags.String("ollama-url", "", "ollama base URL")
	flags.String("retrieval-store", "", "postgres, chroma or memory")
	flags.String("kb-store", "", "postgres or memory")
	flags.String("kb-root", "", "policy documents root")
	flags.String("org-root", "", "organization config root")
	flags.String("org-unknown", "", "default or reject")
	flags.String("log-file", "", "log file path")
	flags.String("key-file", "", "field encryption key file")
	flags.Bool("memory", false, "use in-memory retrieval and knowledge stores")

	for key, flag := range map[string]string{
		"config":            "config",
		"db":                "db",
		"llm.provider":      "llm-provider",
		"llm.model":         "llm-model",
		"ollama.url":        "ollama-url",
		"retrieval.store":   "retrieval-store",
		"kb.store":          "kb-store",
		"kb.root":           "kb-root",
		"org.root":          "org-root",
		"org.unknown":       "org-unknown",
		"log.file":          "log-file",
		"security.key-file": "key-file",
		"memory":            "memory",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}
	a.v.SetEnvPrefix("CLINICAL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(
		newProcessCmd(a),
		newSyncKBCmd(a),
		newHistoryCmd(a),
		newOrgsCmd(a),
	)
	return rootCmd
}

func (a *app) load() error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	a.cfg = config.Load()
	applyOverrides(a.v, a.cfg)
	a.log = logger.NewIsolatedLogger(a.cfg.App.LogFilePath)
	return nil
}

func applyOverrides(v *viper.Viper, cfg *config.Config) {
	for key, set := range overrides {
		if val := v.GetString(key); val != "" {
			set(cfg, val)
		}
	}
	if v.GetBool("memory") {
		cfg.Retrieval.Store = "memory"
		cfg.Knowledge.IndexStore = "memory"
	}
}

func (a *app) needsDatabase() bool {
	return a.cfg.Retrieval.Store == "postgres" || a.cfg.Retrieval.Store == "" ||
		a.cfg.Knowledge.IndexStore == "postgres" || a.cfg.Knowledge.IndexStore == ""
}

func (a *app) openDB() (*gorm.DB, error) {
	if a.cfg.Database.Connection == "" {
		return nil, fmt.Errorf("no database configured: set DB_CONNECTION_STRING, --db or --memory")
	}
	return database.NewGormDBFromDSN(a.cfg.Database.Connection, false)
}

func (a *app) openCore(ctx context.Context) (*bootstrap.Core, error) {
	var db *gorm.DB
	if a.needsDatabase() {
		var err error
		if db, err = a.openDB(); err != nil {
			return nil, err
		}
	}
	return bootstrap.NewCore(ctx, a.cfg, db, a.log)
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/itglabs/impact-agent/agentcard"
	"github.com/itglabs/impact-agent/db"
	"github.com/itglabs/impact-agent/httpsig"
	"github.com/itglabs/impact-agent/registry"
	"github.com/itglabs/impact-agent/secrets"
	"github.com/itglabs/impact-agent/server"
	"github.com/itglabs/impact-agent/skills"
)

const version = "0.1.0"

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "impact-agent",
		Short: "Canonical agent-record reconciliation service with an A2A skill endpoint",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Upstream deployment variables keep their historical names.
	_ = viper.BindEnv("a2a.ed25519_private_key_pem", "A2A_ED25519_PRIVATE_KEY_PEM")
	_ = viper.BindEnv("agent.name", "AGENT_NAME")
	_ = viper.BindEnv("db.use_remote_d1", "USE_REMOTE_D1")
	_ = viper.BindEnv("db.cloudflare.account_id", "CLOUDFLARE_ACCOUNT_ID")
	_ = viper.BindEnv("db.cloudflare.api_token", "CLOUDFLARE_API_TOKEN")
	_ = viper.BindEnv("db.cloudflare.database_id", "CLOUDFLARE_D1_DATABASE_ID")
	_ = viper.BindEnv("db.cloudflare.database_name", "CLOUDFLARE_D1_DATABASE_NAME")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(strings.TrimSpace(viper.GetString("log.level")), "debug") {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(viper.GetString("log.format")), "json") {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			slog.SetDefault(log)

			dbCfg := dbConfigFromViper()
			gdb, err := db.Open(cmd.Context(), dbCfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if dbCfg.AutoMigrate {
				if err := db.AutoMigrate(gdb); err != nil {
					return fmt.Errorf("automigrate: %w", err)
				}
			}
			guard := registry.NewSchemaGuard(gdb)
			if err := guard.Ensure(cmd.Context()); err != nil {
				return fmt.Errorf("schema guard: %w", err)
			}

			store := registry.NewStore(gdb)

			signer, err := signerFromViper()
			if err != nil {
				return fmt.Errorf("load signing key: %w", err)
			}

			viper.SetDefault("agent.name", "impact-agent")
			viper.SetDefault("server.addr", ":8084")
			viper.SetDefault("server.base_url", "http://localhost:8084")
			agentName := strings.TrimSpace(viper.GetString("agent.name"))
			baseURL := strings.TrimRight(strings.TrimSpace(viper.GetString("server.base_url")), "/")

			card := &agentcard.Builder{
				Name:        agentName,
				Description: strings.TrimSpace(viper.GetString("agent.description")),
				URL:         baseURL,
				Version:     version,
				AgentID:     strings.TrimSpace(viper.GetString("agent.uaid")),
			}
			if signer != nil {
				card.PublicKey = signer.PublicKeyBase64()
			}

			dispatcher := registryFromViper(store, log, func() any { return card.Card() })
			card.Registry = dispatcher
			card.Extra = skillDescriptorsFromViper(log)

			viper.SetDefault("server.allow_subdomain_override", false)
			srv := server.New(server.Config{
				Addr:                   viper.GetString("server.addr"),
				BaseURL:                baseURL,
				AgentName:              agentName,
				Version:                version,
				AllowSubdomainOverride: viper.GetBool("server.allow_subdomain_override"),
				MaxUploadBytes:         viper.GetInt64("server.max_upload_bytes"),
			}, log, store, dispatcher, signer, card)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			gdb, err := db.Open(cmd.Context(), dbConfigFromViper())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := db.AutoMigrate(gdb); err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}
			if err := registry.NewSchemaGuard(gdb).Ensure(cmd.Context()); err != nil {
				return fmt.Errorf("schema guard: %w", err)
			}
			log.Info("schema is up to date")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func signerFromViper() (*httpsig.Signer, error) {
	ref := strings.TrimSpace(viper.GetString("a2a.ed25519_private_key_pem"))
	if ref == "" {
		return nil, nil
	}
	pemText, err := secrets.Resolve(ref)
	if err != nil {
		return nil, err
	}
	keyID := strings.TrimSpace(viper.GetString("a2a.key_id"))
	if keyID == "" {
		keyID = "a2a-primary"
	}
	return httpsig.NewSigner(pemText, keyID)
}

func skillDescriptorsFromViper(log *slog.Logger) []skills.Descriptor {
	dir := strings.TrimSpace(viper.GetString("skills.dir"))
	if dir == "" {
		return nil
	}
	descriptors, err := skills.LoadDir(dir)
	if err != nil {
		log.Warn("loading skill descriptors failed", "dir", dir, "error", err)
		return nil
	}
	return descriptors
}

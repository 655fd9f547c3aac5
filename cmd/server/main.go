package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/labtrack/console/internal/api"
	"github.com/labtrack/console/internal/config"
	"github.com/labtrack/console/internal/core"
	"github.com/labtrack/console/internal/logging"
	"github.com/labtrack/console/internal/metrics"
	"github.com/labtrack/console/internal/policy"
	"github.com/labtrack/console/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"policy_mode", cfg.Policy.Mode,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}

	// Upstream clients
	profiles := api.NewProfileClient(cfg.Upstream.AccountURL, httpClient)
	passwords := api.NewPasswordClient(cfg.Upstream.AccountURL, httpClient)
	preferences := api.NewPreferencesClient(cfg.Upstream.AccountURL, httpClient)
	avatars := api.NewAvatarClient(cfg.Upstream.MediaURL, httpClient)
	documents := api.NewDocumentClient(cfg.Upstream.MediaURL, httpClient)
	settings := api.NewSettingsClient(cfg.Upstream.SettingsBaseURL(), httpClient)

	avatarPolicy, documentPolicy, err := buildPolicyProviders(cfg, settings)
	if err != nil {
		slog.Error("failed to build policy providers", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	service, err := core.NewService(core.Deps{
		Profiles:       profiles,
		Passwords:      passwords,
		Preferences:    preferences,
		Avatars:        avatars,
		Documents:      documents,
		AvatarPolicy:   avatarPolicy,
		DocumentPolicy: documentPolicy,
		Metrics:        m,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, service, m)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Drop in-flight mutation trackers and staged previews
		service.Shutdown()
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// buildPolicyProviders wires the avatar and document policy sources from
// config. The document policy always comes from the local defaults or the
// policy file; the avatar policy can additionally be fetched live from
// the settings service in remote mode.
func buildPolicyProviders(cfg *config.Config, settings *api.SettingsClient) (policy.Provider, policy.Provider, error) {
	avatarStatic := policy.DefaultAvatarPolicy()
	documentStatic := policy.DefaultDocumentPolicy()

	if cfg.Policy.File != "" {
		categories, err := policy.LoadFile(cfg.Policy.File)
		if err != nil {
			return nil, nil, err
		}
		if p, ok := categories["avatar"]; ok {
			avatarStatic = p
		}
		if p, ok := categories["document"]; ok {
			documentStatic = p
		}
		slog.Info("loaded policy file", "path", cfg.Policy.File, "categories", len(categories))
	}

	documentProvider, err := policy.NewStatic(documentStatic)
	if err != nil {
		return nil, nil, err
	}

	var avatarProvider policy.Provider
	if strings.EqualFold(cfg.Policy.Mode, "remote") {
		avatarProvider = policy.NewRemote(settings.AvatarPolicy, cfg.Policy.RefreshTTL)
	} else {
		avatarProvider, err = policy.NewStatic(avatarStatic)
		if err != nil {
			return nil, nil, err
		}
	}

	return avatarProvider, documentProvider, nil
}

// Package bootstrap wires all dependencies and runs the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/voxway/voxgate/adapters/auth"
	"github.com/voxway/voxgate/adapters/clock"
	"github.com/voxway/voxgate/adapters/hasher"
	provhttp "github.com/voxway/voxgate/adapters/http"
	"github.com/voxway/voxgate/adapters/idgen"
	"github.com/voxway/voxgate/adapters/metrics"
	"github.com/voxway/voxgate/adapters/sqlite"
	"github.com/voxway/voxgate/app"
	"github.com/voxway/voxgate/config"
	"github.com/voxway/voxgate/domain/pricing"
	"github.com/voxway/voxgate/web"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Auth  *app.AuthService
	Chat  *app.ChatService
	STT   *app.STTService
	Admin *app.AdminService

	// Rates is the live rate table; ApplyConfig swaps it on reload.
	Rates *pricing.Store

	users  *sqlite.UserStore
	web    *web.Handler
	hasher *hasher.Bcrypt
	idGen  idgen.UUID
	clock  clock.System
}

// New wires the application from configuration.
func New(cfg *config.Config, version string) (*App, error) {
	logger := SetupLogger(cfg.Logging)
	logger.Info().Msg("initializing voxgate")

	a := &App{
		Logger: logger,
		Config: cfg,
		hasher: hasher.NewBcrypt(0),
		idGen:  idgen.UUID{},
		clock:  clock.System{},
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	logger.Info().Str("dsn", cfg.Database.DSN).Msg("database initialized")

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	a.users = sqlite.NewUserStore(db)
	sessions := sqlite.NewSessionStore(db)
	ledgerStore := sqlite.NewLedgerStore(db)
	audit := sqlite.NewAuditStore(db)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Rates = pricing.NewStore(pricing.DefaultTable().Merge(cfg.Rates))

	openrouter := provhttp.NewOpenRouterClient(provhttp.OpenRouterConfig{
		APIKey:       cfg.Providers.OpenRouter.APIKey,
		ProvisionKey: cfg.Providers.OpenRouter.ProvisionKey,
		Model:        cfg.Providers.OpenRouter.Model,
		BaseURL:      cfg.Providers.OpenRouter.BaseURL,
		Referer:      cfg.Providers.OpenRouter.Referer,
		Title:        cfg.Providers.OpenRouter.Title,
	})
	elevenlabs := provhttp.NewElevenLabsClient(provhttp.ElevenLabsConfig{
		APIKey:  cfg.Providers.ElevenLabs.APIKey,
		BaseURL: cfg.Providers.ElevenLabs.BaseURL,
	})
	speechmatics := provhttp.NewSpeechmaticsClient(provhttp.SpeechmaticsConfig{
		APIKey:  cfg.Providers.Speechmatics.APIKey,
		BaseURL: cfg.Providers.Speechmatics.BaseURL,
		Region:  cfg.Providers.Speechmatics.Region,
		TTLSecs: cfg.Providers.Speechmatics.TTLSecs,
	})
	prober := provhttp.NewProber(probeTargets(cfg))

	a.Auth = app.NewAuthService(app.AuthDeps{
		Users:  a.users,
		Audit:  audit,
		Tokens: tokens,
		Hasher: a.hasher,
		Clock:  a.clock,
		IDGen:  a.idGen,
		Logger: logger.With().Str("service", "auth").Logger(),
	})
	a.Chat = app.NewChatService(app.ChatDeps{
		Upstream:      openrouter,
		Users:         a.users,
		Ledger:        ledgerStore,
		Audit:         audit,
		Rates:         a.Rates,
		Clock:         a.clock,
		IDGen:         a.idGen,
		Metrics:       a.Metrics,
		Logger:        logger.With().Str("service", "chat").Logger(),
		Model:         cfg.Providers.OpenRouter.Model,
		KeyConfigured: cfg.Providers.OpenRouter.APIKey != "",
	})
	a.STT = app.NewSTTService(app.STTDeps{
		Users:    a.users,
		Sessions: sessions,
		Ledger:   ledgerStore,
		Audit:    audit,
		Rates:    a.Rates,
		Clock:    a.clock,
		IDGen:    a.idGen,
		Logger:   logger.With().Str("service", "stt").Logger(),
	})
	a.Admin = app.NewAdminService(app.AdminDeps{
		Users:       a.users,
		Sessions:    sessions,
		Ledger:      ledgerStore,
		Audit:       audit,
		Provisioner: openrouter,
		Prober:      prober,
		Hasher:      a.hasher,
		Clock:       a.clock,
		IDGen:       a.idGen,
		Logger:      logger.With().Str("service", "admin").Logger(),
	})

	a.web = web.NewHandler(web.Deps{
		Auth:      a.Auth,
		Chat:      a.Chat,
		STT:       a.STT,
		Admin:     a.Admin,
		Primary:   elevenlabs,
		Alternate: speechmatics,
		Metrics:   a.Metrics,
		Logger:    logger.With().Str("component", "web").Logger(),
		Origins:   cfg.CORS.Origins,
		Version:   version,
	})

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.web.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// probeTargets lists the cheap authenticated endpoints checked by the
// admin provider health view.
func probeTargets(cfg *config.Config) []provhttp.ProbeTarget {
	smBase := cfg.Providers.Speechmatics.BaseURL
	if smBase == "" {
		smBase = "https://mp.speechmatics.com"
	}
	elBase := cfg.Providers.ElevenLabs.BaseURL
	if elBase == "" {
		elBase = "https://api.elevenlabs.io"
	}
	orBase := cfg.Providers.OpenRouter.BaseURL
	if orBase == "" {
		orBase = "https://openrouter.ai/api/v1"
	}

	return []provhttp.ProbeTarget{
		{
			Provider: pricing.ProviderSpeechmatics,
			URL:      smBase + "/v1/api_keys",
			Header:   http.Header{"Authorization": {"Bearer " + cfg.Providers.Speechmatics.APIKey}},
			HasKey:   cfg.Providers.Speechmatics.APIKey != "",
		},
		{
			Provider: pricing.ProviderElevenLabs,
			URL:      elBase + "/v1/user",
			Header:   http.Header{"Xi-Api-Key": {cfg.Providers.ElevenLabs.APIKey}},
			HasKey:   cfg.Providers.ElevenLabs.APIKey != "",
		},
		{
			Provider: pricing.ProviderOpenRouter,
			URL:      orBase + "/auth/key",
			Header:   http.Header{"Authorization": {"Bearer " + cfg.Providers.OpenRouter.ProvisionKey}},
			HasKey:   cfg.Providers.OpenRouter.ProvisionKey != "",
		},
	}
}

// ApplyConfig applies the reloadable subset of a new configuration to
// the running application: usage rates, CORS origins and the log
// level. Everything else takes effect on restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Rates.Replace(pricing.DefaultTable().Merge(cfg.Rates))
	a.web.UpdateOrigins(cfg.CORS.Origins)

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	a.Logger.Info().
		Int("rates", len(cfg.Rates)).
		Int("cors_origins", len(cfg.CORS.Origins)).
		Str("log_level", cfg.Logging.Level).
		Msg("reloadable configuration applied")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// SetupLogger builds the process logger from config.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"voicemail-stt/internal/app/cache"
	"voicemail-stt/internal/app/logging"
	"voicemail-stt/internal/app/metrics"
	"voicemail-stt/internal/app/overlay"
	"voicemail-stt/internal/app/repository"
	"voicemail-stt/internal/app/repository/jsonfile"
	"voicemail-stt/internal/app/repository/pg"
	"voicemail-stt/internal/app/repository/redis"
	"voicemail-stt/internal/app/repository/sqlite"
	"voicemail-stt/internal/app/stt"
	"voicemail-stt/internal/app/wazo"
	"voicemail-stt/internal/config"
	"voicemail-stt/web"
)

// Bridge bundles the wired components of one overlay deployment.
type Bridge struct {
	Server  *web.Server
	Session *overlay.Session
	Logger  *zap.SugaredLogger
}

// ProvideLogger builds the process logger. Production encoding is selected
// by VMSTT_ENV=production.
func ProvideLogger() *zap.SugaredLogger {
	development := os.Getenv("VMSTT_ENV") != "production"
	return logging.MustNewLogger(development).Sugar()
}

// ProvideOverlayConfig loads the overlay tuning knobs.
func ProvideOverlayConfig(path string) (config.Overlay, error) {
	return config.LoadOverlay(path)
}

// ProvideCredentials loads session credentials from the environment.
func ProvideCredentials() (*config.Credentials, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	return config.GetCredentials()
}

// ProvideStore selects the persistence backend from the environment.
func ProvideStore(logger *zap.SugaredLogger) (repository.TranscriptionStore, error) {
	backend := config.StoreBackend()
	dsn := config.StoreDSN()
	logger.Debugw("opening transcription store", "backend", backend)

	switch backend {
	case "jsonfile":
		return jsonfile.NewStore(dsn), nil
	case "sqlite":
		return sqlite.NewSQLiteStore(dsn)
	case "postgres":
		return pg.NewPostgresStore(dsn)
	case "redis":
		return redis.NewRedisStore(dsn), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// ProvideCache builds the result cache over the selected store.
func ProvideCache(store repository.TranscriptionStore, logger *zap.SugaredLogger) *cache.Cache {
	return cache.New(store, logger)
}

// ProvideVoicemailClient builds the voicemail API client.
func ProvideVoicemailClient(creds *config.Credentials) *wazo.Client {
	return wazo.NewClient(creds.WazoHost, creds.WazoToken)
}

// ProvideTranscriptionClient builds the transcription service client.
func ProvideTranscriptionClient() *stt.Client {
	return stt.NewClient(config.STTServerURL())
}

// ProvideHub builds the update fan-out hub.
func ProvideHub() *overlay.Hub {
	return overlay.NewHub()
}

// ProvideMetrics registers the overlay metrics.
func ProvideMetrics() *metrics.Metrics {
	return metrics.NewDefault()
}

// ProvideSession assembles the overlay session.
func ProvideSession(
	cfg config.Overlay,
	creds *config.Credentials,
	vm *wazo.Client,
	sttClient *stt.Client,
	resultCache *cache.Cache,
	hub *overlay.Hub,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
) *overlay.Session {
	return overlay.NewSession(overlay.Options{
		Config:         cfg,
		UserUUID:       creds.WazoUserUUID,
		Voicemail:      vm,
		Transcriptions: sttClient,
		Cache:          resultCache,
		Observer:       hub,
		Metrics:        m,
		Logger:         logger,
	})
}

// ProvideServer assembles the bridge server.
func ProvideServer(cfg config.Overlay, session *overlay.Session, hub *overlay.Hub, logger *zap.SugaredLogger) *web.Server {
	return web.NewServer(cfg.ListenAddr, session, hub, logger)
}

// NewBridge bundles the wired graph.
func NewBridge(server *web.Server, session *overlay.Session, logger *zap.SugaredLogger) *Bridge {
	return &Bridge{
		Server:  server,
		Session: session,
		Logger:  logger,
	}
}

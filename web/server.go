package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"voicemail-stt/internal/app/overlay"
	"voicemail-stt/web/handlers"
)

// Server is the local bridge the UI-wiring layer talks to. The thin DOM
// layer posts mutation snapshots and user actions here and subscribes to
// transcription updates; everything else stays inside the session.
type Server struct {
	session *overlay.Session
	hub     *overlay.Hub
	addr    string
	logger  *zap.SugaredLogger
}

// NewServer creates a bridge server for one session.
func NewServer(addr string, session *overlay.Session, hub *overlay.Hub, logger *zap.SugaredLogger) *Server {
	return &Server{
		session: session,
		hub:     hub,
		addr:    addr,
		logger:  logger,
	}
}

// Handler builds the bridge routes. Split from Start so tests can drive the
// server through httptest.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	bridge := handlers.NewBridgeHandler(s.session, s.hub, s.logger)

	api := engine.Group("/api")
	{
		api.POST("/mutations", bridge.PostMutation)
		api.POST("/reload", bridge.PostReload)
		api.POST("/voicemails/:message_id/transcription", bridge.PostTranscription)
		api.GET("/voicemails", bridge.GetVoicemails)
		api.GET("/transcriptions", bridge.GetTranscriptions)
		api.GET("/jobs", bridge.GetJobs)
		api.GET("/events", bridge.GetEvents)
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "session_id": s.session.ID()})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return engine
}

// Start serves the bridge until the listener fails.
func (s *Server) Start() error {
	s.logger.Infow("bridge server listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

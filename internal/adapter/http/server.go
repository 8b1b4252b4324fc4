package http

import (
	"net/http"

	"github.com/streamvault/streamvault/internal/adapter/http/middleware"
)

type Server struct {
	mux      *http.ServeMux
	handlers *Handlers
	uploads  *UploadHandlers
	sse      *SSEHandler
	hook     *HookHandler
	authSvc  AuthService
}

func NewServer(handlers *Handlers, uploads *UploadHandlers, sse *SSEHandler, hook *HookHandler, authSvc AuthService) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		handlers: handlers,
		uploads:  uploads,
		sse:      sse,
		hook:     hook,
		authSvc:  authSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/login", LoginHandler(s.authSvc))

	// The ingest server posts here without credentials.
	s.mux.HandleFunc("POST /api/hooks/stream", s.hook.StreamHook())

	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return AuthMiddleware(s.authSvc, h)
	}

	s.mux.HandleFunc("POST /api/sources/{id}/record", auth(s.handlers.StartRecording()))
	s.mux.HandleFunc("GET /api/sources/{id}/record", auth(s.handlers.LatestRecording()))
	s.mux.HandleFunc("POST /api/record/{id}/stop", auth(s.handlers.StopRecording()))
	s.mux.HandleFunc("GET /api/sources/{id}/status", auth(s.handlers.SourceStatus()))

	s.mux.HandleFunc("POST /api/videos/{id}/audio", auth(s.handlers.StartExtraction()))
	s.mux.HandleFunc("GET /api/videos/{id}/audio", auth(s.handlers.LatestExtraction()))

	s.mux.HandleFunc("POST /api/videos/{id}/trim", auth(s.handlers.StartTrim()))
	s.mux.HandleFunc("GET /api/videos/{id}/trim", auth(s.handlers.LatestTrim()))
	s.mux.HandleFunc("POST /api/trim/{id}/cancel", auth(s.handlers.CancelTrim()))

	s.mux.HandleFunc("POST /api/upload/init", auth(s.uploads.Init()))
	s.mux.HandleFunc("POST /api/upload/{id}/chunk", auth(s.uploads.Chunk()))
	s.mux.HandleFunc("GET /api/upload/{id}/status", auth(s.uploads.Status()))
	s.mux.HandleFunc("POST /api/upload/{id}/complete", auth(s.uploads.Complete()))
	s.mux.HandleFunc("DELETE /api/upload/{id}", auth(s.uploads.Cancel()))

	s.mux.HandleFunc("GET /api/schedules", auth(s.handlers.ListSchedules()))

	s.mux.HandleFunc("GET /events", auth(s.sse.Events()))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.SecurityHeaders(s.mux).ServeHTTP(w, r)
}

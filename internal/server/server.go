package server

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/soar/nsogc-bridge/internal/hub"
	"github.com/soar/nsogc-bridge/internal/log"
)

// Session is what the HTTP layer needs from the controller session.
type Session interface {
	hub.Controller
	hub.Snapshotter
}

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	session     Session
	frontendFS  fs.FS
	addr        string
	httpServer  *http.Server
}

func New(h *hub.Hub, b *hub.Broadcaster, s Session, frontendFS fs.FS, addr string) *Server {
	return &Server{
		hub:         h,
		broadcaster: b,
		session:     s,
		frontendFS:  frontendFS,
		addr:        addr,
	}
}

// Handler builds the routes: the websocket, the JSON status endpoint and the
// minified static front end.
func (s *Server) Handler() (http.Handler, error) {
	assets, err := loadAssets(s.frontendFS)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleWebSocket(s.hub, s.broadcaster, s.session))
	mux.HandleFunc("/api/status", handleStatus(s.session))
	mux.Handle("/", assets)
	return mux, nil
}

func (s *Server) ListenAndServe() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	log.InfoF("HTTP server listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		log.Info("Shutting down HTTP server...")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

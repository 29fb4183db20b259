package web

import (
	"github.com/veriface/veriface/internal/web/handlers"
)

func (s *Server) setupRoutes(svc handlers.FaceService) {
	facesHandler := handlers.NewFacesHandler(svc, s.log)

	s.router.Get("/health", facesHandler.Health)
	s.router.Post("/register", facesHandler.Register)
	s.router.Post("/verify", facesHandler.Verify)
}

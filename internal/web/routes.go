package web

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/web/handlers"
	"github.com/kozaktomas/attendance-kiosk/internal/web/static"
)

func (s *Server) setupRoutes() {
	configHandler := handlers.NewConfigHandler(s.config)
	kioskHandler := handlers.NewKioskHandler(s.service.Kiosk())
	attendanceHandler := handlers.NewAttendanceHandler(s.service)
	modelHandler := handlers.NewModelHandler(s.loader, s.config.Classifier.Threshold)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// The websocket outlives any request timeout.
	s.router.Get("/api/v1/kiosk/ws", s.hub.Handler(func() any {
		return s.service.Kiosk().Snapshot()
	}))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(3 * time.Minute))

		r.Get("/config", configHandler.Get)

		// Kiosk
		r.Get("/kiosk", kioskHandler.Get)
		r.Delete("/kiosk/toast", kioskHandler.DismissToast)

		// Attendance
		r.Post("/attendance", attendanceHandler.Attempt)
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/attendance/summary", attendanceHandler.Summary)

		// Model
		r.Get("/model", modelHandler.Info)
		r.Post("/model/reload", modelHandler.Reload)
	})

	if dir := s.config.Model.Dir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			s.router.Handle("/model/*", http.StripPrefix("/model/", http.FileServer(http.Dir(dir))))
		} else {
			log.Printf("Model directory %s not found, /model/ is not served", dir)
		}
	}

	kioskFiles := http.FileServer(static.FileSystem())
	s.router.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		if !static.HasPage() {
			http.Error(w, "kiosk page not built", http.StatusNotFound)
			return
		}
		kioskFiles.ServeHTTP(w, r)
	})
}

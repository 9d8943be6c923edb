// Package api exposes the kiosk core over HTTP. The shell is thin: it
// decodes requests, calls the domain services, and maps errors to status
// codes. All business rules live below it.
package api

import (
	"context"
	"net/http"
	"time"

	"prosorter/domain/interfaces"
	"prosorter/infrastructure/export"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const requestTimeout = 15 * time.Second

// Server wires the domain services to HTTP routes.
type Server struct {
	router     *mux.Router
	server     *http.Server
	ledger     interfaces.LedgerService
	activities interfaces.ActivityRepository
	notifier   interfaces.NotificationService
	reports    interfaces.ReportService
	device     interfaces.DeviceClient
	sink       *export.Sink
}

// NewServer creates the HTTP server. The returned server is not started;
// call Start.
func NewServer(
	addr string,
	ledger interfaces.LedgerService,
	activities interfaces.ActivityRepository,
	notifier interfaces.NotificationService,
	reports interfaces.ReportService,
	device interfaces.DeviceClient,
	sink *export.Sink,
) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		ledger:     ledger,
		activities: activities,
		notifier:   notifier,
		reports:    reports,
		device:     device,
		sink:       sink,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	// Coin ledger
	api.HandleFunc("/coins", s.handleGetCoins).Methods("GET")
	api.HandleFunc("/coins/withdraw", s.handleWithdraw).Methods("POST")
	api.HandleFunc("/coins/reset", s.handleReset).Methods("POST")

	// Fingerprint enrollment
	api.HandleFunc("/enroll", s.handleEnroll).Methods("POST")

	// Audit trail
	api.HandleFunc("/activities", s.handleQueryActivities).Methods("GET")
	api.HandleFunc("/activities", s.handleAppendActivity).Methods("POST")
	api.HandleFunc("/activities", s.handleClearActivities).Methods("DELETE")
	api.HandleFunc("/activities/export", s.handleExportActivities).Methods("GET")

	// Notifications
	api.HandleFunc("/notifications/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/notifications/settings", s.handleUpdateSettings).Methods("PUT")
	api.HandleFunc("/notifications/test", s.handleTestChannel).Methods("POST")

	// Reports
	api.HandleFunc("/reports/custom", s.handleCustomReport).Methods("GET")
	api.HandleFunc("/reports/{kind:daily|weekly|monthly}", s.handleReport).Methods("GET")
	api.HandleFunc("/reports/export", s.handleExportReport).Methods("POST")
	api.HandleFunc("/reports/files", s.handleListReportFiles).Methods("GET")
	api.HandleFunc("/reports/files/{name}", s.handleDownloadReportFile).Methods("GET")
	api.HandleFunc("/reports/files/{name}", s.handleDeleteReportFile).Methods("DELETE")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	log.WithField("addr", s.server.Addr).Info("HTTP server started")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// requestLoggingMiddleware logs all requests with structured fields
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapper.statusCode,
			"duration": time.Since(start).String(),
		}).Debug("request handled")
	})
}

// timeoutMiddleware enforces request timeouts
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

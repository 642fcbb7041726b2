// Package api mxgram REST API
//
// @title           mxgram REST API
// @version         1.0.0
// @description     Encode, decode, inspect and relay gram datagrams.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
)

// Router returns the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Codec
		r.Post("/encode", s.metrics.InstrumentHandler("POST", "/api/v1/encode", s.handleEncode))
		r.Post("/decode", s.metrics.InstrumentHandler("POST", "/api/v1/decode", s.handleDecode))
		r.Post("/inspect", s.metrics.InstrumentHandler("POST", "/api/v1/inspect", s.handleInspect))

		// Transport
		r.Post("/send", s.metrics.InstrumentHandler("POST", "/api/v1/send", s.handleSend))

		// Archive
		r.Get("/grams", s.metrics.InstrumentHandler("GET", "/api/v1/grams", s.handleListGrams))
		r.Get("/grams/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/grams/{id}", s.handleGetGram))
		r.Delete("/grams/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/grams/{id}", s.handleDeleteGram))

		// UDP sockets
		r.Get("/sockets", s.metrics.InstrumentHandler("GET", "/api/v1/sockets", s.handleListSockets))
		r.Post("/sockets", s.metrics.InstrumentHandler("POST", "/api/v1/sockets", s.handleOpenSocket))
		r.Delete("/sockets", s.metrics.InstrumentHandler("DELETE", "/api/v1/sockets", s.handleCloseAllSockets))
		r.Post("/sockets/{id}/send", s.metrics.InstrumentHandler("POST", "/api/v1/sockets/{id}/send", s.handleSocketSend))
		r.Get("/sockets/{id}/receive", s.metrics.InstrumentHandler("GET", "/api/v1/sockets/{id}/receive", s.handleSocketReceive))
		r.Delete("/sockets/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/sockets/{id}", s.handleCloseSocket))
	})

	// Swagger document (unprotected)
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	return r
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, fmt.Sprint(s.config.Port))
}

// Close closes the sockets opened through the API
func (s *Server) Close() error {
	return s.sockets.CloseAll()
}

// ListenAndServe serves the API until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	defer s.Close()
	SwaggerInfo.Host = fmt.Sprintf("localhost:%d", s.config.Port)

	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting mxgram REST API server on %s", srv.Addr)
		log.Printf("Metrics available at: http://%s/metrics", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("Shutting down mxgram REST API server")
		return srv.Shutdown(shutdownCtx)
	}
}

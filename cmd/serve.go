package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/looksy-group/stylist-api/internal/config"
	"github.com/looksy-group/stylist-api/internal/model"
	"github.com/looksy-group/stylist-api/internal/outfit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the stylist frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		a, err := initApp(cfg)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(a.service, cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter wires the API routes. The frontend is a browser SPA on another
// origin, so CORS is part of the contract, not an afterthought.
func newRouter(service *outfit.Service, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/outfits/generate", handleGenerate(service))
	r.Post("/api/outfits/products", handleProducts(service))

	return r
}

// generateResponse wraps the outfit with the one flag the UI cares about:
// whether this is real model output or demo/fallback data.
type generateResponse struct {
	Outfit   model.GeneratedOutfit `json:"outfit"`
	Fallback bool                  `json:"fallback"`
}

func handleGenerate(service *outfit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.OutfitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if msg := validateRequest(req); msg != "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
			return
		}

		generated := service.GenerateOutfit(r.Context(), req)
		writeJSON(w, http.StatusOK, generateResponse{
			Outfit:   generated,
			Fallback: generated.Fallback(),
		})
	}
}

type productsRequest struct {
	Request model.OutfitRequest   `json:"request"`
	Outfit  model.GeneratedOutfit `json:"outfit"`
}

type productsResponse struct {
	Items []model.ItemProducts `json:"items"`
}

func handleProducts(service *outfit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if len(req.Outfit.Items) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "outfit.items is required"})
			return
		}

		items := service.SearchProducts(r.Context(), req.Outfit, req.Request)
		writeJSON(w, http.StatusOK, productsResponse{Items: items})
	}
}

// validateRequest covers the only errors a client ever sees: malformed input.
// Generation and search failures downstream degrade to synthetic data instead.
func validateRequest(req model.OutfitRequest) string {
	switch req.Gender {
	case "", model.GenderFemale, model.GenderMale, model.GenderUnisex:
	default:
		return "gender must be one of: female, male, unisex"
	}
	if req.HeightCm < 0 || req.HeightCm > 250 {
		return "height_cm out of range"
	}
	if req.WeightKg < 0 || req.WeightKg > 400 {
		return "weight_kg out of range"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

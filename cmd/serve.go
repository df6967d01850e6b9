package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hd-crm/support-triage/internal/model"
	"github.com/hd-crm/support-triage/internal/triage"
)

var servePort int

// triageService is the pipeline surface the HTTP handlers need. Tests
// substitute a stub.
type triageService interface {
	Classify(ctx context.Context, text string) (*model.ClassificationResult, error)
	TriageQuote(ctx context.Context, text string) (*model.QuoteTriageResult, error)
	TriageAftersales(ctx context.Context, text string) (*model.AftersalesTriageResult, error)
	InferAction(ctx context.Context, issue, product string) (*model.ActionDecision, error)
	Consolidate(ctx context.Context, text string) (*model.ConsolidatedResult, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP triage server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(p, cfg.Server.AllowedOrigins),
		}

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

// newRouter wires the triage routes onto a chi router.
func newRouter(svc triageService, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/classify", func(w http.ResponseWriter, req *http.Request) {
		text, ok := decodeMessage(w, req)
		if !ok {
			return
		}
		res, err := svc.Classify(req.Context(), text)
		respond(w, req, res, err)
	})

	r.Post("/v1/triage/quote", func(w http.ResponseWriter, req *http.Request) {
		text, ok := decodeMessage(w, req)
		if !ok {
			return
		}
		res, err := svc.TriageQuote(req.Context(), text)
		respond(w, req, res, err)
	})

	r.Post("/v1/triage/aftersales", func(w http.ResponseWriter, req *http.Request) {
		text, ok := decodeMessage(w, req)
		if !ok {
			return
		}
		res, err := svc.TriageAftersales(req.Context(), text)
		respond(w, req, res, err)
	})

	r.Post("/v1/action", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Issue   string `json:"issue"`
			Product string `json:"product"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(body.Issue) == "" {
			writeError(w, http.StatusBadRequest, "issue is required")
			return
		}
		res, err := svc.InferAction(req.Context(), body.Issue, body.Product)
		respond(w, req, res, err)
	})

	r.Post("/v1/consolidate", func(w http.ResponseWriter, req *http.Request) {
		text, ok := decodeMessage(w, req)
		if !ok {
			return
		}
		res, err := svc.Consolidate(req.Context(), text)
		respond(w, req, res, err)
	})

	return r
}

// decodeMessage reads the {"text": ...} request body shared by most routes.
func decodeMessage(w http.ResponseWriter, req *http.Request) (string, bool) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return "", false
	}
	return body.Text, true
}

// respond maps pipeline errors onto HTTP statuses: a schema violation or
// empty response from the model is an upstream failure (502), anything else
// is internal (500).
func respond(w http.ResponseWriter, req *http.Request, res any, err error) {
	if err != nil {
		zap.L().Error("request failed",
			zap.String("path", req.URL.Path),
			zap.String("request_id", middleware.GetReqID(req.Context())),
			zap.Error(err),
		)
		var schemaErr *triage.SchemaValidationError
		if errors.As(err, &schemaErr) || errors.Is(err, triage.ErrEmptyResponse) {
			writeError(w, http.StatusBadGateway, "extraction service returned an invalid response")
			return
		}
		writeError(w, http.StatusInternalServerError, "triage failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/escotilha/nuvini-ai-fpa/internal/consol"
	"github.com/escotilha/nuvini-ai-fpa/internal/model"
	"github.com/escotilha/nuvini-ai-fpa/internal/platform/httpx"
	"github.com/escotilha/nuvini-ai-fpa/internal/shared"
)

// Service is the subset of the consolidation service the API uses.
type Service interface {
	Run(ctx context.Context, input consol.RunInput) (consol.Summary, error)
	UpsertRates(ctx context.Context, rates []model.FXRate) error
	LatestSummary(ctx context.Context) (consol.Summary, error)
	ValidationReport(ctx context.Context) (string, error)
	AuditTrail(ctx context.Context, runID string) ([]shared.AuditEntry, error)
}

// Handler wires the consolidation JSON endpoints.
type Handler struct {
	logger    *slog.Logger
	service   Service
	validate  *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the consolidation API handler.
func NewHandler(logger *slog.Logger, service Service) *Handler {
	limiter := httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{
		logger:    logger,
		service:   service,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		rateLimit: limiter,
	}
}

// MountRoutes registers consolidation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Post("/fx/rates", h.handleUpsertRates)
		r.Post("/consolidations", h.handleRun)
	})
	r.Get("/consolidations/latest", h.handleLatestSummary)
	r.Get("/consolidations/latest/validation", h.handleValidationReport)
	r.Get("/consolidations/latest/audit", h.handleAuditTrail)
	r.Get("/consolidations/{runID}/audit", h.handleAuditTrail)
}

func (h *Handler) handleUpsertRates(w http.ResponseWriter, r *http.Request) {
	var req UpsertRatesRequest
	if !h.decode(w, r, &req) {
		return
	}
	rates := make([]model.FXRate, 0, len(req.Rates))
	for _, in := range req.Rates {
		rate, err := in.toDomain()
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		rates = append(rates, rate)
	}
	if err := h.service.UpsertRates(r.Context(), rates); err != nil {
		h.log().Error("upsert fx rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"stored": len(rates)})
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.toDomain()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	summary, err := h.service.Run(r.Context(), input)
	if err != nil {
		h.log().Error("consolidation run", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, summary)
}

func (h *Handler) handleLatestSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.LatestSummary(r.Context())
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.log().Error("load latest summary", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleValidationReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ValidationReport(r.Context())
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.log().Error("load validation report", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	entries, err := h.service.AuditTrail(r.Context(), runID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.log().Error("load audit trail", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

// decode unmarshals and validates a JSON payload, replying 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) log() *slog.Logger {
	if h != nil && h.logger != nil {
		return h.logger.With(slog.String("component", "consol_http"))
	}
	return slog.Default().With(slog.String("component", "consol_http"))
}

package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"overlay-studio/internal/platform/httpx"
	"overlay-studio/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// DefaultRTSPURL is reported by /api/config when no stream is configured.
const DefaultRTSPURL = "rtsp://default-stream-url"

const healthTimeout = 2 * time.Second

// ConfigResponse is the GET /api/config body.
type ConfigResponse struct {
	RTSPURL string `json:"rtsp_url"`
}

// HealthResponse is the GET /api/health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// MessageResponse is a body carrying a human-readable message only.
type MessageResponse struct {
	Message string `json:"message"`
}

// Handler exposes the overlay collection over HTTP using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
	rtspURL string
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests). An empty
// rtspURL selects DefaultRTSPURL.
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics, rtspURL string) *Handler {
	if rtspURL == "" {
		rtspURL = DefaultRTSPURL
	}
	return &Handler{svc: svc, log: log, metrics: m, rtspURL: rtspURL}
}

// Routes mounts every /api endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/overlays", h.ListOverlays)
		r.Post("/overlays", h.CreateOverlay)
		r.Put("/overlays/{id}", h.UpdateOverlay)
		r.Delete("/overlays/{id}", h.DeleteOverlay)
		r.Get("/config", h.GetConfig)
		r.Get("/health", h.Health)
	})
}

// ListOverlays handles GET /api/overlays.
func (h *Handler) ListOverlays(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("list overlays failed", slog.String("error", err.Error()))
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// CreateOverlay handles POST /api/overlays.
// Body: { "type": "text", "content": "LIVE", "x": 10, "y": 10, "width": 20, "height": 8 }.
func (h *Handler) CreateOverlay(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid overlay body", slog.String("error", err.Error()))
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	o, err := h.svc.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httpx.Error(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, ErrInvalidType):
			httpx.Error(w, http.StatusBadRequest, "Invalid overlay type")
		default:
			h.log.Error("create overlay failed", slog.String("error", err.Error()))
			httpx.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.log.Info("overlay created",
		slog.String("id", o.ID),
		slog.String("type", string(o.Type)))
	h.metrics.IncOverlayOp(metrics.OpCreate)
	httpx.JSON(w, http.StatusCreated, o)
}

// UpdateOverlay handles PUT /api/overlays/{id}.
func (h *Handler) UpdateOverlay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.log.Debug("invalid patch body", slog.String("id", id), slog.String("error", err.Error()))
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	o, err := h.svc.Update(r.Context(), id, p)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyPatch):
			httpx.Error(w, http.StatusBadRequest, "No valid fields to update")
		case errors.Is(err, ErrInvalidType):
			httpx.Error(w, http.StatusBadRequest, "Invalid overlay type")
		case errors.Is(err, ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Overlay not found")
		default:
			h.log.Error("update overlay failed", slog.String("id", id), slog.String("error", err.Error()))
			httpx.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.log.Debug("overlay updated", slog.String("id", id))
	h.metrics.IncOverlayOp(metrics.OpUpdate)
	httpx.JSON(w, http.StatusOK, o)
}

// DeleteOverlay handles DELETE /api/overlays/{id}.
func (h *Handler) DeleteOverlay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Overlay not found")
			return
		}
		h.log.Error("delete overlay failed", slog.String("id", id), slog.String("error", err.Error()))
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info("overlay deleted", slog.String("id", id))
	h.metrics.IncOverlayOp(metrics.OpDelete)
	httpx.JSON(w, http.StatusOK, MessageResponse{Message: "Overlay deleted successfully"})
}

// GetConfig handles GET /api/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, ConfigResponse{RTSPURL: h.rtspURL})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		h.log.Warn("store unreachable", slog.String("error", err.Error()))
		httpx.JSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "unhealthy",
			Message: "Overlay store is unreachable",
		})
		return
	}
	httpx.JSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "RTSP Overlay API is running",
	})
}

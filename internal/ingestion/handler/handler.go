package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/logger"
)

// Ingester is satisfied by *publisher.Publisher.
type Ingester interface {
	Ingest(ctx context.Context, raw string) (*ingestion.IngestResponse, error)
}

type Handler struct {
	ingester Ingester
	maxBytes int64
	logger   *slog.Logger
}

// New creates a Handler. Request bodies larger than maxBytes are refused;
// zero disables the limit.
func New(ing Ingester, maxBytes int) *Handler {
	return &Handler{
		ingester: ing,
		maxBytes: int64(maxBytes),
		logger:   slog.Default().With("component", "ingestion-handler"),
	}
}

// Register mounts the ingestion routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/articles", h.Ingest)
	mux.HandleFunc("GET /health", h.Health)
}

// Ingest accepts either a text/plain article or a JSON IngestRequest.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	body := io.Reader(r.Body)
	if h.maxBytes > 0 {
		// JSON escaping can grow the payload, so allow some headroom.
		body = http.MaxBytesReader(w, r.Body, 2*h.maxBytes)
	}
	raw, err := readArticle(r.Header.Get("Content-Type"), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "invalid_input", "request body too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	resp, err := h.ingester.Ingest(ctx, raw)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		var formatErr *validator.FormatError
		if errors.As(err, &formatErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "format",
				"fields": formatErr.Fields,
			})
			return
		}
		if statusCode >= http.StatusInternalServerError {
			log.Error("ingestion failed", "error", err, "status_code", statusCode)
			h.writeError(w, statusCode, apperrors.Kind(err), "ingestion failed")
			return
		}
		log.Info("ingestion rejected", "error", err, "status_code", statusCode)
		h.writeError(w, statusCode, apperrors.Kind(err), apperrors.Message(err))
		return
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

func readArticle(contentType string, body io.Reader) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" {
		var req ingestion.IngestRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return "", errors.Join(errors.New("invalid JSON body"), err)
		}
		return req.Text, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, kind, message string) {
	h.writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

// Package web exposes the story graph over HTTP: an authenticated write
// endpoint and an unauthenticated read endpoint.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apperrors "github.com/talendarch/storygraph/internal/platform/errors"
	"github.com/talendarch/storygraph/internal/service"
	"github.com/talendarch/storygraph/internal/story"
)

// maxBodyBytes caps a write request body. Story nodes are short prose.
const maxBodyBytes = 1 << 20

// Handler serves the story endpoints.
type Handler struct {
	write *service.WriteService
	read  *service.ReadService
}

// NewHandler builds the HTTP handler for the story server.
func NewHandler(write *service.WriteService, read *service.ReadService) http.Handler {
	h := &Handler{write: write, read: read}
	mux := http.NewServeMux()
	mux.HandleFunc("/save-story", h.handleSaveStory)
	mux.HandleFunc("/read-all", h.handleReadAll)
	mux.HandleFunc("/healthz", h.handleHealthz)
	return otelhttp.NewHandler(mux, "storygraph")
}

type saveResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (h *Handler) handleSaveStory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeInvalidBody, "read request body", err), 0)
		return
	}

	filename := r.URL.Query().Get("s")
	if _, err := h.write.Save(r.Context(), filename, body, r.Header.Get("Authorization")); err != nil {
		writeError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

func (h *Handler) handleReadAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	views, err := h.read.ReadAll(r.Context(), r.URL.Query().Get("table"))
	if err != nil {
		writeError(w, err, 0)
		return
	}
	if views == nil {
		views = []story.View{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// writeError renders the structured {error, detail?} body. statusOverride of
// zero uses the status derived from the error's code.
func writeError(w http.ResponseWriter, err error, statusOverride int) {
	status := apperrors.CodeOf(err).HTTPStatus()
	if statusOverride != 0 {
		status = statusOverride
	}

	resp := errorResponse{Error: "internal error"}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		resp.Error = domainErr.Message
		if domainErr.Cause != nil {
			resp.Detail = domainErr.Cause.Error()
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

package http

import (
	"net/http"

	"github.com/stagepass/stagepass/config"
	"github.com/stagepass/stagepass/pkg/logger"
)

type RootHandler struct {
	config *config.Config
	logger logger.Logger
}

func NewRootHandler(cfg *config.Config, logger logger.Logger) *RootHandler {
	return &RootHandler{
		config: cfg,
		logger: logger,
	}
}

func (h *RootHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/health", http.HandlerFunc(h.handleHealth))
	mux.Handle("/api/status", http.HandlerFunc(h.handleStatus))
}

func (h *RootHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *RootHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"version":     h.config.Version,
		"environment": h.config.Environment,
	})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/subtrans/backend/internal/job"
	"github.com/subtrans/backend/internal/translate"
)

type TranslateHandler struct {
	mediaPath string
	queue     *job.JobQueue
	service   *translate.Service
}

func NewTranslateHandler(mediaPath string, queue *job.JobQueue, service *translate.Service) *TranslateHandler {
	return &TranslateHandler{mediaPath: mediaPath, queue: queue, service: service}
}

// ListProviders returns the configured providers plus everything this build
// knows about, so the UI can flag unconfigured ones.
func (h *TranslateHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	configured := map[string]bool{}
	for _, id := range h.service.Providers() {
		configured[id] = true
	}

	type providerEntry struct {
		ID         string `json:"id"`
		Configured bool   `json:"configured"`
	}
	entries := []providerEntry{}
	for _, id := range translate.ProviderIDs() {
		entries = append(entries, providerEntry{ID: id, Configured: configured[id]})
	}

	jsonResponse(w, entries, http.StatusOK)
}

// TranslateSubtitle enqueues a translation job for a media or subtitle file
func (h *TranslateHandler) TranslateSubtitle(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	fullPath := filepath.Join(h.mediaPath, path)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}

	var params job.TranslateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if params.TargetLang == "" {
		jsonError(w, "target_lang is required", http.StatusBadRequest)
		return
	}
	if params.Provider != "" {
		found := false
		for _, id := range h.service.Providers() {
			if id == params.Provider {
				found = true
				break
			}
		}
		if !found {
			jsonError(w, "provider not configured: "+params.Provider, http.StatusBadRequest)
			return
		}
	}
	if params.Layout != "" {
		if _, err := translate.ParseLayoutMode(params.Layout); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	j, err := h.queue.Enqueue(job.JobTranslate, fullPath, params)
	if err != nil {
		jsonError(w, "failed to enqueue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, j, http.StatusAccepted)
}

package handlers

import (
	"net/http"

	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
)

const recentDocumentsLimit = 5

type DashboardHandler struct {
	store *repository.Store
	log   *logger.Logger
}

func NewDashboardHandler(store *repository.Store, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, log: log}
}

// Stats reports store-wide totals, overall quiz accuracy and the most
// recently uploaded documents.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.store.Counts(ctx, nil)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	stats, err := h.store.Quizzes.Stats(ctx, nil)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	recent, err := h.store.Documents.Recent(ctx, recentDocumentsLimit)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress":         models.NewProgress(*counts, *stats),
		"recent_documents": recent,
	})
}

package handlers

import (
	"net/http"

	"vectortutor-backend/internal/agents"
	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
)

type FlashcardHandler struct {
	agent *agents.Flashcard
	log   *logger.Logger
}

func NewFlashcardHandler(agent *agents.Flashcard, log *logger.Logger) *FlashcardHandler {
	return &FlashcardHandler{agent: agent, log: log}
}

func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateFlashcardsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cards, err := h.agent.Generate(r.Context(), req.DocumentID, req.Count, req.Topic)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"document_id": req.DocumentID,
		"flashcards":  cards,
	})
}

func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentFilter(w, r)
	if !ok {
		return
	}

	cards, err := h.agent.List(r.Context(), documentID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flashcards": cards})
}

package handlers

import (
	"net/http"

	"vectortutor-backend/internal/agents"
	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
)

type QuizHandler struct {
	agent *agents.Quiz
	log   *logger.Logger
}

func NewQuizHandler(agent *agents.Quiz, log *logger.Logger) *QuizHandler {
	return &QuizHandler{agent: agent, log: log}
}

func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items, err := h.agent.Generate(r.Context(), req.DocumentID, req.Count, req.Difficulty, req.Topic)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"document_id": req.DocumentID,
		"questions":   items,
	})
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentFilter(w, r)
	if !ok {
		return
	}
	difficulty := r.URL.Query().Get("difficulty")
	if difficulty != "" && difficulty != "easy" && difficulty != "medium" && difficulty != "hard" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"difficulty": "must be one of easy, medium, hard"}, r))
		return
	}

	items, err := h.agent.List(r.Context(), models.QuizFilter{DocumentID: documentID, Difficulty: difficulty})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": items})
}

// Submit grades one answer. Unknown quiz ids grade as incorrect.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.SubmitAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	isCorrect, err := h.agent.SubmitAnswer(r.Context(), id, *req.UserAnswer)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SubmitAnswerResponse{QuizID: id, IsCorrect: isCorrect})
}

func (h *QuizHandler) Stats(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentFilter(w, r)
	if !ok {
		return
	}

	stats, err := h.agent.Stats(r.Context(), documentID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

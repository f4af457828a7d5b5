package handlers

import (
	"net/http"
	"strconv"

	"vectortutor-backend/internal/agents"
	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
)

type ChatHandler struct {
	agent *agents.Chat
	log   *logger.Logger
}

func NewChatHandler(agent *agents.Chat, log *logger.Logger) *ChatHandler {
	return &ChatHandler{agent: agent, log: log}
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	useHistory := true
	if req.UseHistory != nil {
		useHistory = *req.UseHistory
	}

	answer, err := h.agent.Answer(r.Context(), req.DocumentID, req.Question, useHistory)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentFilter(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"limit": "must be a positive integer"}, r))
			return
		}
		limit = n
	}

	turns, err := h.agent.History(r.Context(), documentID, limit)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": turns})
}

func (h *ChatHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	summary, err := h.agent.Summarize(r.Context(), req.DocumentID, req.FocusTopic)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SummaryResponse{DocumentID: req.DocumentID, Summary: summary})
}

package handlers

import (
	"net/http"

	"vectortutor-backend/internal/agents"
	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
)

type PlanHandler struct {
	agent *agents.Planner
	log   *logger.Logger
}

func NewPlanHandler(agent *agents.Planner, log *logger.Logger) *PlanHandler {
	return &PlanHandler{agent: agent, log: log}
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Days == 0 {
		req.Days = agents.DefaultPlanDays
	}
	if req.HoursPerDay == 0 {
		req.HoursPerDay = agents.DefaultHoursPerDay
	}

	plan, err := h.agent.CreatePlan(r.Context(), req.DocumentID, req.Days, req.HoursPerDay, req.FocusTopics)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentFilter(w, r)
	if !ok {
		return
	}

	plans, err := h.agent.List(r.Context(), documentID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

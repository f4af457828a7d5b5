package models

import "time"

type Activity struct {
	Type            string `json:"type"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
}

type PlanDay struct {
	Day        int        `json:"day"`
	Date       string     `json:"date"`
	Topics     []string   `json:"topics"`
	Activities []Activity `json:"activities"`
	Notes      string     `json:"notes"`
}

type PlanData struct {
	PlanName    string    `json:"plan_name"`
	TotalDays   int       `json:"total_days"`
	HoursPerDay float64   `json:"hours_per_day"`
	Schedule    []PlanDay `json:"schedule"`
	Tips        []string  `json:"tips"`
}

type RevisionPlan struct {
	ID         int64     `json:"plan_id"`
	DocumentID int64     `json:"document_id"`
	Plan       PlanData  `json:"plan_data"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreatePlanRequest struct {
	DocumentID  int64    `json:"document_id" validate:"required,min=1"`
	Days        int      `json:"days" validate:"omitempty,min=1,max=365"`
	HoursPerDay float64  `json:"hours_per_day" validate:"omitempty,gt=0,lte=24"`
	FocusTopics []string `json:"focus_topics" validate:"omitempty,dive,required"`
}

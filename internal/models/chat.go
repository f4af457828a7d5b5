package models

import "time"

// ChatTurn is one persisted question/answer exchange about a document.
type ChatTurn struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AskedAt    time.Time `json:"asked_at"`
}

type ChatAnswer struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	DocumentID int64  `json:"document_id"`
	Source     string `json:"source"`
}

type AskRequest struct {
	DocumentID int64  `json:"document_id" validate:"required,min=1"`
	Question   string `json:"question" validate:"required"`
	UseHistory *bool  `json:"use_history"`
}

type SummarizeRequest struct {
	DocumentID int64  `json:"document_id" validate:"required,min=1"`
	FocusTopic string `json:"focus_topic"`
}

type SummaryResponse struct {
	DocumentID int64  `json:"document_id"`
	Summary    string `json:"summary"`
}

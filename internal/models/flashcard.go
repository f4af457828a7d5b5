package models

import "time"

type Flashcard struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Topic      string    `json:"topic,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type GenerateFlashcardsRequest struct {
	DocumentID int64  `json:"document_id" validate:"required,min=1"`
	Count      int    `json:"count" validate:"omitempty,min=1,max=50"`
	Topic      string `json:"topic"`
}

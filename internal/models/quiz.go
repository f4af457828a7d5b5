package models

import "time"

type QuizItem struct {
	ID            int64     `json:"id"`
	DocumentID    int64     `json:"document_id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correct_answer"`
	Difficulty    string    `json:"difficulty"`
	Topic         string    `json:"topic,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type QuizAttempt struct {
	ID          int64     `json:"id"`
	QuizID      int64     `json:"quiz_id"`
	UserAnswer  int       `json:"user_answer"`
	IsCorrect   bool      `json:"is_correct"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// QuizFilter narrows a quiz listing; zero fields do not filter.
type QuizFilter struct {
	DocumentID *int64
	Difficulty string
}

type PerformanceStats struct {
	TotalAttempts   int     `json:"total_attempts"`
	CorrectAttempts int     `json:"correct_attempts"`
	Accuracy        float64 `json:"accuracy"`
}

// Recommendation is a study hint keyed on accuracy bands.
func (s PerformanceStats) Recommendation() string {
	switch {
	case s.TotalAttempts == 0:
		return "Start taking quizzes to track your performance!"
	case s.Accuracy < 50:
		return "Your accuracy is below 50%. Consider reviewing the material and creating more flashcards."
	case s.Accuracy < 70:
		return "Your accuracy is good! Keep practicing to improve further."
	default:
		return "Excellent performance! You're mastering the material!"
	}
}

type GenerateQuizRequest struct {
	DocumentID int64  `json:"document_id" validate:"required,min=1"`
	Count      int    `json:"count" validate:"omitempty,min=1,max=50"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Topic      string `json:"topic"`
}

type SubmitAnswerRequest struct {
	UserAnswer *int `json:"user_answer" validate:"required"`
}

type SubmitAnswerResponse struct {
	QuizID    int64 `json:"quiz_id"`
	IsCorrect bool  `json:"is_correct"`
}

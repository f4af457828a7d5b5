package agents

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"vectortutor-backend/internal/models"
)

const (
	fallbackTopic      = "General"
	defaultDifficulty  = "medium"
	generalContent     = "General Content"
	flashcardMinLength = 20
	quizMinLength      = 30
)

var quizDistractors = []string{
	"This is not mentioned in the text.",
	"The opposite is true.",
	"None of the above.",
}

var planTips = []string{
	"Review previous days' material regularly",
	"Take breaks between study sessions",
	"Test yourself with quizzes and flashcards",
	"Get adequate sleep before the exam",
}

// sentences splits on periods and keeps trimmed pieces longer than minLen
// characters.
func sentences(content string, minLen int) []string {
	var out []string
	for _, s := range strings.Split(content, ".") {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minLen {
			out = append(out, s)
		}
	}
	return out
}

func fallbackFlashcards(content string, count int) []cardCandidate {
	var cards []cardCandidate
	for _, s := range sentences(content, flashcardMinLength) {
		if len(cards) == count {
			break
		}
		cards = append(cards, cardCandidate{
			Question:   fmt.Sprintf("What is mentioned about: %s...?", head(s, 50)),
			Answer:     head(s, 200),
			Topic:      fallbackTopic,
			Difficulty: defaultDifficulty,
		})
	}
	return cards
}

func fallbackQuiz(content string, count int, difficulty string) []models.QuizItem {
	var items []models.QuizItem
	for _, s := range sentences(content, quizMinLength) {
		if len(items) == count {
			break
		}
		options := append([]string{head(s, 100)}, quizDistractors...)
		items = append(items, models.QuizItem{
			Question:      fmt.Sprintf("Which statement is true about: %s...?", head(s, 60)),
			Options:       options,
			CorrectAnswer: 0,
			Difficulty:    difficulty,
			Topic:         fallbackTopic,
		})
	}
	return items
}

// fallbackPlan spreads topics over the days in order. Days past the end of
// the topic list repeat the last topic.
func fallbackPlan(topics []string, days int, hoursPerDay float64, start time.Time) models.PlanData {
	perDay := len(topics) / days
	if perDay < 1 {
		perDay = 1
	}
	minutes := int(hoursPerDay * 30)

	schedule := make([]models.PlanDay, 0, days)
	for day := 1; day <= days; day++ {
		dayTopics := sliceClamp(topics, (day-1)*perDay, day*perDay+perDay)
		if len(dayTopics) == 0 && len(topics) > 0 {
			dayTopics = []string{topics[len(topics)-1]}
		}
		joined := strings.Join(dayTopics, ", ")

		schedule = append(schedule, models.PlanDay{
			Day:    day,
			Date:   planDate(start, day),
			Topics: dayTopics,
			Activities: []models.Activity{
				{Type: "reading", Description: "Study " + joined, DurationMinutes: minutes},
				{Type: "practice", Description: "Practice with flashcards and quizzes", DurationMinutes: minutes},
			},
			Notes: fmt.Sprintf("Day %d: Focus on %s", day, joined),
		})
	}

	return models.PlanData{
		PlanName:    fmt.Sprintf("%d-Day Revision Plan", days),
		TotalDays:   days,
		HoursPerDay: hoursPerDay,
		Schedule:    schedule,
		Tips:        append([]string(nil), planTips...),
	}
}

func sliceClamp(s []string, from, to int) []string {
	if from > len(s) {
		from = len(s)
	}
	if to > len(s) {
		to = len(s)
	}
	return append([]string{}, s[from:to]...)
}

func planDate(start time.Time, day int) string {
	return start.AddDate(0, 0, day-1).Format("2006-01-02")
}

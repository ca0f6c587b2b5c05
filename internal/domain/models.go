package domain

import "time"

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	Points  int      `json:"points"` // defaults to 1 if zero
}

// Quiz is a collection of questions attached to an academy module.
type Quiz struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	PassingPercent int        `json:"passingPercent"`
	Questions      []Question `json:"questions"`
}

// Redacted returns a copy of the quiz without correct flags, safe to send to students.
func (q Quiz) Redacted() Quiz {
	out := Quiz{ID: q.ID, Title: q.Title, PassingPercent: q.PassingPercent}
	out.Questions = make([]Question, 0, len(q.Questions))
	for _, question := range q.Questions {
		options := make([]Option, 0, len(question.Options))
		for _, opt := range question.Options {
			options = append(options, Option{ID: opt.ID, Text: opt.Text})
		}
		out.Questions = append(out.Questions, Question{
			ID:      question.ID,
			Prompt:  question.Prompt,
			Options: options,
			Points:  question.Points,
		})
	}
	return out
}

// AnswerSubmission is one answered question in a quiz submission.
type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// Lesson is a single reading unit inside a module.
type Lesson struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// Module groups lessons and an optional closing quiz.
type Module struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Order       int      `json:"order"`
	Lessons     []Lesson `json:"lessons"`
	QuizID      string   `json:"quizId,omitempty"`
}

// QuizAttempt is the persisted outcome of a graded quiz submission.
type QuizAttempt struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	QuizID      string    `json:"quizId"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	Percentage  int       `json:"percentage"`
	Passed      bool      `json:"passed"`
	Skipped     int       `json:"skipped"`
	SubmittedAt time.Time `json:"submittedAt"`
}

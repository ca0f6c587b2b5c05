package domain

import "errors"

var (
	// ErrNotFound is returned by document stores when a document is missing.
	ErrNotFound = errors.New("document not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrModuleNotFound indicates an unknown academy module.
	ErrModuleNotFound = errors.New("module not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNoAnswers is returned when a quiz submission has nothing gradable.
	ErrNoAnswers = errors.New("no answers submitted")

	// ErrInvalidInvitation covers unknown, revoked, expired and exhausted codes.
	ErrInvalidInvitation = errors.New("invalid invitation code")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrPasswordTooLong is returned when a password exceeds the bcrypt input limit.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrUnauthorized is returned when a token is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller lacks the required role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound indicates an unknown user ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates an unsupported role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrTradeNotFound indicates an unknown journal entry.
	ErrTradeNotFound = errors.New("trade not found")
	// ErrInvalidTrade indicates a journal entry failed validation.
	ErrInvalidTrade = errors.New("invalid trade")

	// ErrThreadNotFound indicates an unknown chat thread.
	ErrThreadNotFound = errors.New("chat thread not found")
	// ErrEmptyMessage is returned when a chat message has no content.
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrMentorUnavailable wraps failures of the completion backend.
	ErrMentorUnavailable = errors.New("mentor unavailable")

	// ErrInvalidEvent indicates a malformed score event.
	ErrInvalidEvent = errors.New("invalid score event")
	// ErrInvalidPeriod indicates a malformed leaderboard period key.
	ErrInvalidPeriod = errors.New("invalid leaderboard period")
	// ErrEntryNotFound is returned when a user has no entry in a period.
	ErrEntryNotFound = errors.New("leaderboard entry not found")
)

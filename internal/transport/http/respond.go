package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"mpt-command-center/internal/domain"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []fieldError `json:"details,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// apiError is an error already mapped to a status and a stable code.
type apiError struct {
	status  int
	code    string
	message string
	details []fieldError
}

func (e *apiError) Error() string { return e.message }

func badRequest(message string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: "bad_request", message: message}
}

var errorTable = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{domain.ErrPasswordTooLong, http.StatusBadRequest, "password_too_long"},
	{domain.ErrInvalidInvitation, http.StatusBadRequest, "invalid_invitation"},
	{domain.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{domain.ErrInvalidTrade, http.StatusBadRequest, "invalid_trade"},
	{domain.ErrNoAnswers, http.StatusBadRequest, "no_answers"},
	{domain.ErrQuestionNotFound, http.StatusBadRequest, "question_not_found"},
	{domain.ErrOptionNotFound, http.StatusBadRequest, "option_not_found"},
	{domain.ErrEmptyMessage, http.StatusBadRequest, "empty_message"},
	{domain.ErrInvalidEvent, http.StatusBadRequest, "invalid_event"},
	{domain.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{domain.ErrTradeNotFound, http.StatusNotFound, "trade_not_found"},
	{domain.ErrModuleNotFound, http.StatusNotFound, "module_not_found"},
	{domain.ErrQuizNotFound, http.StatusNotFound, "quiz_not_found"},
	{domain.ErrThreadNotFound, http.StatusNotFound, "thread_not_found"},
	{domain.ErrEntryNotFound, http.StatusNotFound, "entry_not_found"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrMentorUnavailable, http.StatusBadGateway, "mentor_unavailable"},
}

// toAPIError maps any error returned by the services to its HTTP shape.
func toAPIError(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]fieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			details = append(details, fieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		return &apiError{status: http.StatusBadRequest, code: "validation_failed", message: "input validation failed", details: details}
	}

	for _, row := range errorTable {
		if errors.Is(err, row.target) {
			return &apiError{status: row.status, code: row.code, message: err.Error()}
		}
	}
	return &apiError{status: http.StatusInternalServerError, code: "internal", message: "internal server error"}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func respondCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, apiErr.status, envelope{
		Success: false,
		Error:   &errorBody{Code: apiErr.code, Message: apiErr.message, Details: apiErr.details},
	})
}

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/domain"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// bcrypt hashes at most 72 bytes; max= counts runes.
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= app.MaxPasswordBytes
	})
	return v
}

// decode reads a JSON body into dst and validates its struct tags.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return badRequest("request body is empty")
		}
		return badRequest("malformed JSON body")
	}
	return validate.Struct(dst)
}

type registerRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8,bcryptlen"`
	Name           string `json:"name" validate:"required,max=80"`
	InvitationCode string `json:"invitationCode" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expiresIn"`
	User      domain.Profile `json:"user"`
}

type profileRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=80"`
	Bio          *string `json:"bio" validate:"omitempty,max=500"`
	TradingStyle *string `json:"tradingStyle" validate:"omitempty,max=80"`
}

type tradeRequest struct {
	Pair       string     `json:"pair" validate:"required,max=20"`
	Direction  string     `json:"direction" validate:"required,oneof=buy sell"`
	EntryPrice float64    `json:"entryPrice" validate:"gt=0"`
	ExitPrice  float64    `json:"exitPrice" validate:"gt=0"`
	LotSize    float64    `json:"lotSize" validate:"gt=0"`
	PnL        *float64   `json:"pnl"`
	Emotion    string     `json:"emotion" validate:"max=40"`
	Notes      string     `json:"notes" validate:"max=2000"`
	TradedAt   *time.Time `json:"tradedAt"`
}

type submitQuizRequest struct {
	Answers []domain.AnswerSubmission `json:"answers" validate:"required,min=1"`
}

type createThreadRequest struct {
	Title string `json:"title" validate:"max=120"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=warrior admin"`
}

type invitationRequest struct {
	Count     int    `json:"count" validate:"gte=0,lte=100"`
	MaxUses   int    `json:"maxUses" validate:"gte=0"`
	ExpiresIn string `json:"expiresIn"`
}

type recomputeResponse struct {
	Period  domain.Period `json:"period"`
	Saved   int           `json:"saved"`
	Skipped int           `json:"skipped"`
}

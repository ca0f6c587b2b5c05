package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/config"
	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/infra/memory"
	"mpt-command-center/internal/logger"
)

var testNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	t        *testing.T
	server   *httptest.Server
	docs     *memory.DocumentStore
	services Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	now := func() time.Time { return testNow }
	log := logger.Nop()

	docs := memory.NewDocumentStore()
	board := app.NewLeaderboardServiceWithClock(memory.NewLeaderboardStore(), app.NewScorer(app.DefaultWeights()), log, now)
	tokens := app.NewTokenIssuer("test-secret", time.Hour, "mpt-test")
	invitations := app.NewInvitationService(docs, log, now)
	users := app.NewUserService(docs, invitations, tokens, []string{"admin@mpt.test"}, log, now).WithBcryptCost(bcrypt.MinCost)
	quizzes := memory.NewQuizRepository(app.NewDocumentQuizLoader(docs), time.Minute)

	svc := Services{
		Users:       users,
		Invitations: invitations,
		Tokens:      tokens,
		Journal:     app.NewJournalService(docs, board, log, now),
		Academy:     app.NewAcademyService(docs, quizzes, board, log, now),
		Leaderboard: board,
		Chat:        app.NewChatService(docs, app.OfflineMentor{}, app.ContextBuilder{Window: 10}, "", board, log, now),
		Admin:       app.NewAdminService(docs, board, now),
	}
	opts := Options{
		APK: config.APKRelease{Version: "1.4.0", URL: "https://cdn.example.com/mpt-1.4.0.apk"},
		Now: now,
	}
	server := httptest.NewServer(NewRouter(svc, opts, log))
	t.Cleanup(server.Close)
	return &testEnv{t: t, server: server, docs: docs, services: svc}
}

// register creates an account through the API and returns its token.
func (e *testEnv) register(email, name string) string {
	e.t.Helper()
	codes, err := e.services.Invitations.Generate(context.Background(), "seed", 1, 1, 0)
	if err != nil {
		e.t.Fatalf("generate invitation: %v", err)
	}
	var out struct {
		Token string         `json:"token"`
		User  domain.Profile `json:"user"`
	}
	status := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":          email,
		"password":       "warrior-pass",
		"name":           name,
		"invitationCode": codes[0].Code,
	}, &out)
	if status != http.StatusCreated {
		e.t.Fatalf("register %s: status %d", email, status)
	}
	return out.Token
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends a JSON request and decodes the envelope's data into out (if non-nil).
func (e *testEnv) do(method, path, token string, body any, out any) int {
	e.t.Helper()
	resp := e.raw(method, path, token, body)
	if out != nil && resp.Success {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			e.t.Fatalf("decode %s %s data: %v", method, path, err)
		}
	}
	return resp.status
}

type rawResponse struct {
	apiResponse
	status int
}

func (e *testEnv) raw(method, path, token string, body any) rawResponse {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := rawResponse{status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&out.apiResponse); err != nil {
		e.t.Fatalf("decode %s %s envelope (status %d): %v", method, path, resp.StatusCode, err)
	}
	return out
}

func seedAcademy(t *testing.T, docs *memory.DocumentStore) {
	t.Helper()
	ctx := context.Background()
	module := domain.Module{
		ID:     "risk-101",
		Title:  "Risk Management 101",
		Order:  1,
		QuizID: "risk-quiz",
		Lessons: []domain.Lesson{
			{ID: "l2", Title: "Position sizing", Order: 2},
			{ID: "l1", Title: "Why risk first", Order: 1},
		},
	}
	quiz := domain.Quiz{
		ID:             "risk-quiz",
		Title:          "Risk basics",
		PassingPercent: 70,
		Questions: []domain.Question{
			{ID: "q1", Prompt: "Max risk per trade?", Points: 1, Options: []domain.Option{
				{ID: "a", Text: "1-2%", Correct: true}, {ID: "b", Text: "20%"},
			}},
			{ID: "q2", Prompt: "Stop loss goes...", Points: 1, Options: []domain.Option{
				{ID: "a", Text: "Where the idea is invalid", Correct: true}, {ID: "b", Text: "Nowhere"},
			}},
		},
	}
	if err := docs.Put(ctx, app.CollectionModules, module.ID, module); err != nil {
		t.Fatalf("seed module: %v", err)
	}
	if err := docs.Put(ctx, app.CollectionQuizzes, quiz.ID, quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
}

package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/config"
	"mpt-command-center/internal/logger"
)

// Services are the use cases the HTTP surface exposes.
type Services struct {
	Users       *app.UserService
	Invitations *app.InvitationService
	Tokens      *app.TokenIssuer
	Journal     *app.JournalService
	Academy     *app.AcademyService
	Leaderboard *app.LeaderboardService
	Chat        *app.ChatService
	Admin       *app.AdminService
}

// Options tune the HTTP surface.
type Options struct {
	CORSOrigins []string
	APK         config.APKRelease
	Now         func() time.Time
}

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	users       *app.UserService
	invitations *app.InvitationService
	tokens      *app.TokenIssuer
	journal     *app.JournalService
	academy     *app.AcademyService
	board       *app.LeaderboardService
	chat        *app.ChatService
	admin       *app.AdminService
	stream      *WSHandler
	apk         config.APKRelease
	log         *logger.Logger
	now         func() time.Time
}

// NewRouter builds the full REST and websocket surface.
func NewRouter(svc Services, opts Options, log *logger.Logger) http.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	h := &Handler{
		users:       svc.Users,
		invitations: svc.Invitations,
		tokens:      svc.Tokens,
		journal:     svc.Journal,
		academy:     svc.Academy,
		board:       svc.Leaderboard,
		chat:        svc.Chat,
		admin:       svc.Admin,
		apk:         opts.APK,
		log:         log.With("component", "http"),
		now:         now,
	}
	h.stream = NewWSHandler(svc.Leaderboard, h.log, now)

	r := mux.NewRouter()
	authed := func(fn http.HandlerFunc) http.Handler { return h.authenticate(fn) }

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.login).Methods(http.MethodPost)
	r.Handle("/api/me", authed(h.me)).Methods(http.MethodGet)
	r.Handle("/api/me", authed(h.updateMe)).Methods(http.MethodPatch)

	r.Handle("/api/journal/stats", authed(h.journalStats)).Methods(http.MethodGet)
	r.Handle("/api/journal", authed(h.listTrades)).Methods(http.MethodGet)
	r.Handle("/api/journal", authed(h.createTrade)).Methods(http.MethodPost)
	r.Handle("/api/journal/{id}", authed(h.updateTrade)).Methods(http.MethodPut)
	r.Handle("/api/journal/{id}", authed(h.deleteTrade)).Methods(http.MethodDelete)

	r.Handle("/api/academy/modules", authed(h.listModules)).Methods(http.MethodGet)
	r.Handle("/api/academy/modules/{id}", authed(h.getModule)).Methods(http.MethodGet)
	r.Handle("/api/academy/quizzes/{id}", authed(h.getQuiz)).Methods(http.MethodGet)
	r.Handle("/api/academy/quizzes/{id}/submit", authed(h.submitQuiz)).Methods(http.MethodPost)
	r.Handle("/api/academy/attempts", authed(h.listAttempts)).Methods(http.MethodGet)

	r.HandleFunc("/api/leaderboard", h.leaderboard).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard/podium", h.podium).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard/users/{userId}", h.userRank).Methods(http.MethodGet)
	r.HandleFunc("/ws/leaderboard", h.stream.ServeWS).Methods(http.MethodGet)

	r.Handle("/api/chat/threads", authed(h.listThreads)).Methods(http.MethodGet)
	r.Handle("/api/chat/threads", authed(h.createThread)).Methods(http.MethodPost)
	r.Handle("/api/chat/threads/{id}/messages", authed(h.listMessages)).Methods(http.MethodGet)
	r.Handle("/api/chat/threads/{id}/messages", authed(h.sendMessage)).Methods(http.MethodPost)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(h.authenticate, h.requireAdmin)
	admin.HandleFunc("/users", h.adminListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/role", h.adminSetRole).Methods(http.MethodPatch)
	admin.HandleFunc("/invitations", h.adminListInvitations).Methods(http.MethodGet)
	admin.HandleFunc("/invitations", h.adminCreateInvitations).Methods(http.MethodPost)
	admin.HandleFunc("/invitations/{code}", h.adminRevokeInvitation).Methods(http.MethodDelete)
	admin.HandleFunc("/dashboard", h.adminDashboard).Methods(http.MethodGet)
	admin.HandleFunc("/leaderboard/recompute", h.adminRecompute).Methods(http.MethodPost)
	admin.HandleFunc("/modules/{id}", h.adminUpsertModule).Methods(http.MethodPut)
	admin.HandleFunc("/quizzes/{id}", h.adminUpsertQuiz).Methods(http.MethodPut)

	r.HandleFunc("/api/downloads/apk", h.apkInfo).Methods(http.MethodGet)
	r.HandleFunc("/download/apk", h.apkDownload).Methods(http.MethodGet)

	// Outside the router so preflights and 404/405s are logged and get CORS headers.
	return recoverer(h.log)(requestLogger(h.log)(cors(opts.CORSOrigins)(r)))
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) caller(r *http.Request) app.Identity {
	who, _ := IdentityFrom(r.Context())
	return who
}

package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/logger"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email          string
	Password       string
	Name           string
	InvitationCode string
}

// ProfileUpdate carries optional profile edits; nil fields are left alone.
type ProfileUpdate struct {
	Name         *string
	Bio          *string
	TradingStyle *string
}

// UserService owns registration, login and profiles.
type UserService struct {
	docs        DocumentStore
	invitations *InvitationService
	tokens      *TokenIssuer
	adminEmails map[string]struct{}
	log         *logger.Logger
	now         func() time.Time
	bcryptCost  int
}

func NewUserService(docs DocumentStore, invitations *InvitationService, tokens *TokenIssuer, adminEmails []string, log *logger.Logger, now func() time.Time) *UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}
	return &UserService{
		docs:        docs,
		invitations: invitations,
		tokens:      tokens,
		adminEmails: admins,
		log:         log.With("service", "UserService"),
		now:         now,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// WithBcryptCost lowers hashing cost; tests use bcrypt.MinCost.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

// Register creates an account if the invitation code is usable and returns a token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, string, error) {
	if len(in.Password) > MaxPasswordBytes {
		return domain.User{}, "", domain.ErrPasswordTooLong
	}
	email := normalizeEmail(in.Email)
	existing, err := findAs[domain.User](ctx, s.docs, CollectionUsers, map[string]string{"email": email})
	if err != nil {
		return domain.User{}, "", err
	}
	if len(existing) > 0 {
		return domain.User{}, "", domain.ErrEmailTaken
	}

	if err := s.invitations.Check(ctx, in.InvitationCode); err != nil {
		return domain.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	inv, err := s.invitations.Redeem(ctx, in.InvitationCode)
	if err != nil {
		return domain.User{}, "", err
	}

	now := s.now()
	user := domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           strings.TrimSpace(in.Name),
		PasswordHash:   string(hash),
		Role:           domain.RoleWarrior,
		InvitationCode: inv.Code,
		InvitedBy:      inv.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, ok := s.adminEmails[email]; ok {
		user.Role = domain.RoleAdmin
	}
	if err := s.docs.Put(ctx, CollectionUsers, user.ID, user); err != nil {
		return domain.User{}, "", fmt.Errorf("store user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	s.log.Info("user registered", "user", user.ID, "invitation", inv.Code, "role", user.Role)
	return user, token, nil
}

// Login verifies credentials and returns a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	users, err := findAs[domain.User](ctx, s.docs, CollectionUsers, map[string]string{"email": normalizeEmail(email)})
	if err != nil {
		return domain.User{}, "", err
	}
	if len(users) == 0 {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Get loads a user by ID.
func (s *UserService) Get(ctx context.Context, userID string) (domain.User, error) {
	user, err := getAs[domain.User](ctx, s.docs, CollectionUsers, userID)
	if err != nil {
		return domain.User{}, mapNotFound(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of upd.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Bio != nil {
		user.Bio = strings.TrimSpace(*upd.Bio)
	}
	if upd.TradingStyle != nil {
		user.TradingStyle = strings.TrimSpace(*upd.TradingStyle)
	}
	user.UpdatedAt = s.now()
	if err := s.docs.Put(ctx, CollectionUsers, user.ID, user); err != nil {
		return domain.User{}, fmt.Errorf("store user: %w", err)
	}
	return user, nil
}

// List returns every user, oldest first.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := findAs[domain.User](ctx, s.docs, CollectionUsers, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

// SetRole changes a user's role.
func (s *UserService) SetRole(ctx context.Context, userID string, role domain.UserRole) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, domain.ErrInvalidRole
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.docs.Put(ctx, CollectionUsers, user.ID, user); err != nil {
		return domain.User{}, fmt.Errorf("store user: %w", err)
	}
	s.log.Info("user role changed", "user", user.ID, "role", role)
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

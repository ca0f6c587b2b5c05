package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/logger"
)

// Unambiguous characters only: no 0/O, 1/I/L.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const maxInvitationBatch = 100

// InvitationService generates and manages registration codes.
type InvitationService struct {
	docs DocumentStore
	log  *logger.Logger
	now  func() time.Time
}

func NewInvitationService(docs DocumentStore, log *logger.Logger, now func() time.Time) *InvitationService {
	return &InvitationService{docs: docs, log: log.With("service", "InvitationService"), now: now}
}

// Generate creates count codes. maxUses 0 means unlimited; expiresIn 0 means never.
func (s *InvitationService) Generate(ctx context.Context, createdBy string, count, maxUses int, expiresIn time.Duration) ([]domain.InvitationCode, error) {
	if count <= 0 {
		count = 1
	}
	if count > maxInvitationBatch {
		count = maxInvitationBatch
	}
	if maxUses < 0 {
		maxUses = 0
	}

	now := s.now()
	codes := make([]domain.InvitationCode, 0, count)
	for i := 0; i < count; i++ {
		code, err := newInvitationCode()
		if err != nil {
			return codes, err
		}
		inv := domain.InvitationCode{
			Code:      code,
			CreatedBy: createdBy,
			MaxUses:   maxUses,
			CreatedAt: now,
		}
		if expiresIn > 0 {
			inv.ExpiresAt = now.Add(expiresIn)
		}
		if err := s.docs.Put(ctx, CollectionInvitations, inv.Code, inv); err != nil {
			return codes, fmt.Errorf("store invitation: %w", err)
		}
		codes = append(codes, inv)
	}
	s.log.Info("invitation codes generated", "count", len(codes), "created_by", createdBy)
	return codes, nil
}

// List returns every code, newest first.
func (s *InvitationService) List(ctx context.Context) ([]domain.InvitationCode, error) {
	codes, err := findAs[domain.InvitationCode](ctx, s.docs, CollectionInvitations, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].CreatedAt.After(codes[j].CreatedAt) })
	return codes, nil
}

// Revoke disables a code.
func (s *InvitationService) Revoke(ctx context.Context, code string) (domain.InvitationCode, error) {
	inv, err := getAs[domain.InvitationCode](ctx, s.docs, CollectionInvitations, NormalizeCode(code))
	if err != nil {
		return domain.InvitationCode{}, mapNotFound(err, domain.ErrInvalidInvitation)
	}
	inv.Revoked = true
	if err := s.docs.Put(ctx, CollectionInvitations, inv.Code, inv); err != nil {
		return domain.InvitationCode{}, fmt.Errorf("store invitation: %w", err)
	}
	return inv, nil
}

// Redeem validates a code and consumes one use.
func (s *InvitationService) Redeem(ctx context.Context, code string) (domain.InvitationCode, error) {
	inv, err := getAs[domain.InvitationCode](ctx, s.docs, CollectionInvitations, NormalizeCode(code))
	if err != nil {
		return domain.InvitationCode{}, mapNotFound(err, domain.ErrInvalidInvitation)
	}
	if !inv.Usable(s.now()) {
		return domain.InvitationCode{}, domain.ErrInvalidInvitation
	}
	inv.Uses++
	if err := s.docs.Put(ctx, CollectionInvitations, inv.Code, inv); err != nil {
		return domain.InvitationCode{}, fmt.Errorf("store invitation: %w", err)
	}
	return inv, nil
}

// Check validates a code without consuming it.
func (s *InvitationService) Check(ctx context.Context, code string) error {
	inv, err := getAs[domain.InvitationCode](ctx, s.docs, CollectionInvitations, NormalizeCode(code))
	if err != nil {
		return mapNotFound(err, domain.ErrInvalidInvitation)
	}
	if !inv.Usable(s.now()) {
		return domain.ErrInvalidInvitation
	}
	return nil
}

// NormalizeCode upper-cases and trims user input.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// newInvitationCode returns a code shaped MPT-XXXX-XXXX.
func newInvitationCode() (string, error) {
	buf := make([]byte, 8)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate invitation code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return "MPT-" + string(buf[:4]) + "-" + string(buf[4:]), nil
}

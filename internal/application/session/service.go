package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classifieds-api/internal/domain"
	"github.com/classifieds-api/internal/pkg/secret"
)

type Service interface {
	// Login checks credentials and returns a signed session token for the
	// account. Error discrimination:
	//   domain.ErrNotFound     — unknown email
	//   domain.ErrForbidden    — account not yet verified (checked before the
	//                            password so it holds for any password value)
	//   domain.ErrUnauthorized — password mismatch
	Login(ctx context.Context, req domain.LoginRequest) (token string, account *domain.Account, err error)
}

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type tokenSigner interface {
	Sign(accountID string) (string, error)
}

type service struct {
	repo   accountStore
	signer tokenSigner
}

func NewService(repo accountStore, signer tokenSigner) Service {
	return &service{repo: repo, signer: signer}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, *domain.Account, error) {
	a, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", nil, err
	}
	if !a.Verified {
		return "", nil, fmt.Errorf("account not verified: %w", domain.ErrForbidden)
	}
	if !a.HasLocalCredential() {
		// Federated-only account: no password can ever match.
		return "", nil, fmt.Errorf("no local credential: %w", domain.ErrUnauthorized)
	}
	match, err := secret.Compare(req.Password, a.PasswordHash)
	if err != nil {
		slog.Error("compare password", "account_id", a.AccountID, "err", err)
		return "", nil, fmt.Errorf("compare password: %w", domain.ErrInternal)
	}
	if !match {
		return "", nil, fmt.Errorf("password mismatch: %w", domain.ErrUnauthorized)
	}
	token, err := s.signer.Sign(a.AccountID)
	if err != nil {
		slog.Error("sign session token", "account_id", a.AccountID, "err", err)
		return "", nil, fmt.Errorf("sign token: %w", domain.ErrInternal)
	}
	return token, a, nil
}

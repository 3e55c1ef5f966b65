package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/classifieds-api/internal/domain"
	"github.com/classifieds-api/internal/pkg/id"
)

// Identity is the verified result of a provider callback: who the provider
// says the bearer is. By the time an Identity exists the provider has already
// vouched for email ownership.
type Identity struct {
	Provider string // domain.ProviderGoogle | domain.ProviderFacebook
	Subject  string // provider-scoped stable user id
	Email    string
	Name     string
	Avatar   string
}

type Service interface {
	// EnsureAccount finds or creates the account for a federated identity.
	// An existing account with the same normalized email gets the provider
	// identity attached (and is marked verified — the provider proved email
	// ownership); otherwise a verified, password-less account is created.
	EnsureAccount(ctx context.Context, ident Identity) (*domain.Account, error)
}

type accountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Save(ctx context.Context, a *domain.Account) error
}

type service struct {
	repo accountStore
}

func NewService(repo accountStore) Service {
	return &service{repo: repo}
}

func (s *service) EnsureAccount(ctx context.Context, ident Identity) (*domain.Account, error) {
	if ident.Email == "" {
		return nil, fmt.Errorf("provider returned no email: %w", domain.ErrBadRequest)
	}
	email := domain.NormalizeEmail(ident.Email)

	a, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.attach(ctx, a, ident)
	case errors.Is(err, domain.ErrNotFound):
		// fall through to create
	default:
		return nil, err
	}

	now := time.Now().UTC()
	a = &domain.Account{
		AccountID: id.New(),
		Email:     email,
		Name:      ident.Name,
		Avatar:    ident.Avatar,
		Verified:  true,
		Provider:  ident.Provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyIdentity(a, ident)
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a create race; attach to the winner instead.
			existing, gerr := s.repo.GetByEmail(ctx, email)
			if gerr != nil {
				return nil, gerr
			}
			return s.attach(ctx, existing, ident)
		}
		return nil, err
	}
	slog.Info("created federated account", "account_id", a.AccountID, "provider", ident.Provider)
	return a, nil
}

// attach records the provider identity on an existing account. A no-op write
// is skipped so repeat logins don't touch the store.
func (s *service) attach(ctx context.Context, a *domain.Account, ident Identity) (*domain.Account, error) {
	changed := applyIdentity(a, ident)
	if !a.Verified {
		a.Verified = true
		a.VerificationCodeHash = ""
		changed = true
	}
	if a.Avatar == "" && ident.Avatar != "" {
		a.Avatar = ident.Avatar
		changed = true
	}
	if !changed {
		return a, nil
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func applyIdentity(a *domain.Account, ident Identity) (changed bool) {
	email := domain.NormalizeEmail(ident.Email)
	switch ident.Provider {
	case domain.ProviderGoogle:
		if a.GoogleID != ident.Subject || a.GoogleEmail != email {
			a.GoogleID, a.GoogleEmail = ident.Subject, email
			changed = true
		}
	case domain.ProviderFacebook:
		if a.FacebookID != ident.Subject || a.FacebookEmail != email {
			a.FacebookID, a.FacebookEmail = ident.Subject, email
			changed = true
		}
	}
	return changed
}

package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/classifieds-api/internal/domain"
	s3infra "github.com/classifieds-api/internal/infrastructure/s3"
	"github.com/classifieds-api/internal/pkg/code"
	"github.com/classifieds-api/internal/pkg/id"
	"github.com/classifieds-api/internal/pkg/secret"
)

type Service interface {
	// Signup creates an unverified account and dispatches its verification
	// code out-of-band. Returns domain.ErrConflict when the email is taken.
	Signup(ctx context.Context, req domain.SignupRequest) error

	// Verify redeems a verification code. alreadyVerified is true when the
	// account was verified before this call (idempotent outcome, no state
	// change). Returns domain.ErrNotFound for unknown emails and
	// domain.ErrUnauthorized for a code mismatch.
	Verify(ctx context.Context, email, verificationCode string) (alreadyVerified bool, err error)

	Profile(ctx context.Context, accountID string) (*domain.Account, error)
	UpdateAvatar(ctx context.Context, accountID, filename string, r io.Reader) (*domain.Account, error)
}

type accountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, accountID string) (*domain.Account, error)
	Update(ctx context.Context, email string, updates map[string]interface{}) error
	MarkVerified(ctx context.Context, email string) error
}

// codeNotifier delivers a verification code out-of-band. Implementations are
// fire-and-forget: the call returns before delivery and never reports failure
// back to the signup path.
type codeNotifier interface {
	DispatchCode(verificationCode, email string, phone *string)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type service struct {
	repo     accountStore
	notifier codeNotifier
	objects  objectStore
}

func NewService(repo accountStore, notifier codeNotifier, objects objectStore) Service {
	return &service{repo: repo, notifier: notifier, objects: objects}
}

func (s *service) Signup(ctx context.Context, req domain.SignupRequest) error {
	verificationCode, err := code.New()
	if err != nil {
		slog.Error("generate verification code", "err", err)
		return fmt.Errorf("generate code: %w", domain.ErrInternal)
	}

	// Password and code each get their own salt from bcrypt.
	passwordHash, err := secret.Hash(req.Password)
	if err != nil {
		slog.Error("hash password", "err", err)
		return fmt.Errorf("hash password: %w", domain.ErrInternal)
	}
	codeHash, err := secret.Hash(verificationCode)
	if err != nil {
		slog.Error("hash verification code", "err", err)
		return fmt.Errorf("hash code: %w", domain.ErrInternal)
	}

	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:            id.New(),
		Email:                domain.NormalizeEmail(req.Email),
		Name:                 req.Name,
		Phone:                req.Phone,
		PasswordHash:         passwordHash,
		VerificationCodeHash: codeHash,
		Verified:             false,
		Provider:             domain.ProviderLocal,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}

	// The account is durable at this point; delivery failure must not undo it.
	s.notifier.DispatchCode(verificationCode, a.Email, a.Phone)
	return nil
}

func (s *service) Verify(ctx context.Context, email, verificationCode string) (bool, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if a.Verified {
		return true, nil
	}
	match, err := secret.Compare(verificationCode, a.VerificationCodeHash)
	if err != nil {
		slog.Error("compare verification code", "account_id", a.AccountID, "err", err)
		return false, fmt.Errorf("compare code: %w", domain.ErrInternal)
	}
	if !match {
		return false, fmt.Errorf("invalid verification code: %w", domain.ErrUnauthorized)
	}
	// Conditional flip: a concurrent redemption that lost the race lands in
	// the idempotent already-verified outcome instead of a second success.
	if err := s.repo.MarkVerified(ctx, a.Email); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (s *service) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

func (s *service) UpdateAvatar(ctx context.Context, accountID, filename string, r io.Reader) (*domain.Account, error) {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	key := "avatars/" + a.AccountID + path.Ext(filename)
	url, err := s.objects.Upload(ctx, key, r, s3infra.DetectContentType(filename))
	if err != nil {
		slog.Error("upload avatar", "account_id", a.AccountID, "err", err)
		return nil, fmt.Errorf("upload avatar: %w", domain.ErrInternal)
	}
	if err := s.repo.Update(ctx, a.Email, map[string]interface{}{"avatar": url}); err != nil {
		return nil, err
	}
	a.Avatar = url
	return a, nil
}

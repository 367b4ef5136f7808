package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/apperr"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/dto"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/repository"
)

var ErrCodeRequired = apperr.BadRequest("code is required")

type AuthService struct {
	accounts AccountDirectory
	provider IdentityProvider
	tokens   *TokenIssuer
}

func NewAuthService(accounts AccountDirectory, provider IdentityProvider, tokens *TokenIssuer) *AuthService {
	return &AuthService{
		accounts: accounts,
		provider: provider,
		tokens:   tokens,
	}
}

// Login exchanges a mini-program code for an identity, resolves (or creates)
// the matching account and issues a session token for it.
func (s *AuthService) Login(ctx context.Context, code string) (*dto.LoginResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		slog.Error("login code exchange failed", "error", err)
		return nil, apperr.Internal("login failed", fmt.Errorf("identity exchange: %w", err))
	}

	account, err := s.resolveAccount(ctx, identity)
	if err != nil {
		return nil, apperr.Internal("login failed", err)
	}

	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, apperr.Internal("login failed", err)
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      account,
	}, nil
}

// resolveAccount is a lookup-or-create keyed by openid. The unique index on
// open_id makes it race safe: losing an insert race re-reads the winner's row.
func (s *AuthService) resolveAccount(ctx context.Context, identity *Identity) (*models.Account, error) {
	account, err := s.accounts.FindByOpenID(ctx, identity.OpenID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	account = &models.Account{
		OpenID:        identity.OpenID,
		Points:        0,
		MonthlyPoints: 0,
	}
	if identity.UnionID != "" {
		unionID := identity.UnionID
		account.UnionID = &unionID
	}

	err = s.accounts.Create(ctx, account)
	if err == nil {
		slog.Info("account created", "account_id", account.ID.String())
		return account, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	existing, err := s.accounts.FindByOpenID(ctx, identity.OpenID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read account after duplicate insert: %w", err)
	}
	return existing, nil
}

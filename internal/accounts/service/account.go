package service

import (
	"context"
	"errors"
	"time"

	accountserrors "marina/internal/accounts/errors"
	"marina/internal/accounts/repository"
	"marina/internal/accounts/validator"
	"marina/internal/auth"
	"marina/pkg/config"
	apperrors "marina/pkg/errors"
	"marina/pkg/model"
	"marina/pkg/sanitizer"
)

const reasonInvalidCredentials = "invalid_credentials"

// Credentials issues and revokes session tokens.
type Credentials interface {
	Issue(identity model.Identity) (string, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type AccountService interface {
	Create(ctx context.Context, input *model.AccountInput) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
	Update(ctx context.Context, email string, update *model.AccountUpdate) (*model.Account, error)
	Delete(ctx context.Context, email string) error
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, claims *auth.Claims) (*model.Account, error)
}

type accountService struct {
	repo        repository.AccountRepository
	validator   *validator.AccountValidator
	hasher      *auth.PasswordHasher
	credentials Credentials
	cfg         *config.Config
	now         func() time.Time
}

func NewAccountService(
	repo repository.AccountRepository,
	validator *validator.AccountValidator,
	hasher *auth.PasswordHasher,
	credentials Credentials,
	cfg *config.Config,
) AccountService {
	return &accountService{
		repo:        repo,
		validator:   validator,
		hasher:      hasher,
		credentials: credentials,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *accountService) Create(ctx context.Context, input *model.AccountInput) (*model.Account, error) {
	if err := s.validator.RequireFields(input); err != nil {
		return nil, err
	}

	account := &model.Account{
		Username: sanitizer.SanitizeText(input.Username),
		Email:    sanitizer.SanitizeEmail(input.Email),
	}
	if err := s.validator.Validate(account); err != nil {
		return nil, err
	}
	if err := s.validator.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, account.Email); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, account.Username); err != nil {
		return nil, err
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}
	account.PasswordHash = hash

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, accountserrors.ErrDuplicate) {
			return nil, apperrors.Conflict("Account already exists")
		}
		s.cfg.Log.Error("Failed to create account", "email", account.Email, "error", err)
		return nil, apperrors.Internal("Failed to create account", err)
	}

	s.cfg.Log.Info("Account created", "account_id", account.ID, "email", account.Email)
	return account, nil
}

func (s *accountService) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	email = sanitizer.SanitizeEmail(email)
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.translateError(err, email, "Failed to retrieve account")
	}
	return account, nil
}

func (s *accountService) List(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list accounts", "error", err)
		return nil, apperrors.Internal("Failed to retrieve accounts", err)
	}
	return accounts, nil
}

// Update applies a partial change to the account stored under email.
func (s *accountService) Update(ctx context.Context, email string, update *model.AccountUpdate) (*model.Account, error) {
	current, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	merged := *current
	if update.Username != nil {
		username := sanitizer.SanitizeText(*update.Username)
		if username == "" {
			return nil, apperrors.MissingFields("username")
		}
		if username != current.Username {
			if err := s.ensureUsernameFree(ctx, username); err != nil {
				return nil, err
			}
		}
		merged.Username = username
	}
	if update.Email != nil {
		newEmail := sanitizer.SanitizeEmail(*update.Email)
		if newEmail == "" {
			return nil, apperrors.MissingFields("email")
		}
		if newEmail != current.Email {
			if err := s.ensureEmailFree(ctx, newEmail); err != nil {
				return nil, err
			}
		}
		merged.Email = newEmail
	}
	if err := s.validator.Validate(&merged); err != nil {
		return nil, err
	}
	if update.Password != nil {
		if err := s.validator.ValidatePassword(*update.Password); err != nil {
			return nil, err
		}
		hash, err := s.hash(*update.Password)
		if err != nil {
			return nil, err
		}
		merged.PasswordHash = hash
	}

	updated, err := s.repo.Update(ctx, current.Email, &merged)
	if err != nil {
		if errors.Is(err, accountserrors.ErrDuplicate) {
			return nil, apperrors.Conflict("Account already exists")
		}
		return nil, s.translateError(err, current.Email, "Failed to update account")
	}

	s.cfg.Log.Info("Account updated", "account_id", updated.ID, "email", updated.Email)
	return updated, nil
}

func (s *accountService) Delete(ctx context.Context, email string) error {
	email = sanitizer.SanitizeEmail(email)
	if err := s.repo.Delete(ctx, email); err != nil {
		return s.translateError(err, email, "Failed to delete account")
	}
	s.cfg.Log.Info("Account deleted", "email", email)
	return nil
}

func (s *accountService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	var missing []string
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingFields(missing...)
	}

	email := sanitizer.SanitizeEmail(req.Email)
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accountserrors.ErrNotFound) {
			s.cfg.Log.Info("Login rejected", "email", email, "reason", "unknown_account")
			return nil, apperrors.Unauthorized(reasonInvalidCredentials)
		}
		s.cfg.Log.Error("Failed to look up account for login", "email", email, "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if !auth.Authenticate(req.Password, account.PasswordHash) {
		s.cfg.Log.Info("Login rejected", "email", email, "reason", "wrong_password")
		return nil, apperrors.Unauthorized(reasonInvalidCredentials)
	}

	token, err := s.credentials.Issue(account.Identity())
	if err != nil {
		s.cfg.Log.Error("Failed to issue credential", "email", email, "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if err := s.repo.UpdateLastLogin(ctx, account.Email, s.now()); err != nil {
		s.cfg.Log.Warn("Failed to record last login", "email", email, "error", err)
	}

	s.cfg.Log.Info("Login succeeded", "account_id", account.ID, "email", account.Email)
	return &model.LoginResponse{
		Token: token,
		Name:  account.Username,
		Email: account.Email,
	}, nil
}

func (s *accountService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.credentials.Revoke(ctx, claims); err != nil {
		s.cfg.Log.Error("Failed to revoke credential", "error", err)
		return apperrors.Internal("Failed to log out", err)
	}
	return nil
}

func (s *accountService) Me(ctx context.Context, claims *auth.Claims) (*model.Account, error) {
	return s.GetByEmail(ctx, claims.User.Email)
}

func (s *accountService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return apperrors.Conflict("Account with this email already exists")
	case errors.Is(err, accountserrors.ErrNotFound):
		return nil
	default:
		s.cfg.Log.Error("Failed to check email uniqueness", "email", email, "error", err)
		return apperrors.Internal("Failed to check account uniqueness", err)
	}
}

func (s *accountService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return apperrors.Conflict("Account with this username already exists")
	case errors.Is(err, accountserrors.ErrNotFound):
		return nil
	default:
		s.cfg.Log.Error("Failed to check username uniqueness", "username", username, "error", err)
		return apperrors.Internal("Failed to check account uniqueness", err)
	}
}

func (s *accountService) hash(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperrors.Validation("Account validation failed", map[string]any{
				"password": "password must be between 6 and 72 characters",
			})
		}
		return "", apperrors.Internal("Failed to hash password", err)
	}
	return hash, nil
}

func (s *accountService) translateError(err error, email, message string) error {
	if errors.Is(err, accountserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Account", email)
	}
	s.cfg.Log.Error(message, "email", email, "error", err)
	return apperrors.Internal(message, err)
}

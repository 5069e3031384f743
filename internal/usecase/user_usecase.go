package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
)

const minPasswordLength = 6

var _ domain.UserUseCase = (*userUseCase)(nil)

type userUseCase struct {
	userRepo domain.UserRepository
	tokens   domain.TokenIssuer
	log      *logrus.Logger

	// dummyHash is compared against when the email is unknown so that both
	// login failures cost one bcrypt comparison.
	dummyHash []byte
}

func NewUserUseCase(repo domain.UserRepository, tokens domain.TokenIssuer, logger *logrus.Logger) domain.UserUseCase {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return &userUseCase{
		userRepo:  repo,
		tokens:    tokens,
		log:       logger,
		dummyHash: dummy,
	}
}

func (uc *userUseCase) Register(ctx context.Context, input domain.RegisterInput) (*domain.AuthResponse, error) {
	email := normalizeEmail(input.Email)
	fullName := strings.TrimSpace(input.FullName)
	uc.log.Infof("Use Case: Attempting registration for email: %s", email)

	if fullName == "" {
		return nil, domain.ValidationError("full name cannot be empty")
	}
	if !isValidEmail(email) {
		uc.log.Warnf("Use Case: Registration failed - invalid email format: %s", email)
		return nil, domain.ValidationError("invalid email format")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to hash password for %s: %v", email, err)
		return nil, fmt.Errorf("internal error processing password: %w", err)
	}

	user, err := uc.userRepo.CreateUser(ctx, &domain.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
	})
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to create user %s: %v", email, err)
		return nil, err
	}

	uc.log.Infof("Use Case: User registered successfully. ID: %d, Email: %s", user.ID, user.Email)
	return uc.authResponse(user)
}

func (uc *userUseCase) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	email = normalizeEmail(email)
	uc.log.Infof("Use Case: Attempting authentication for email: %s", email)

	user, err := uc.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.log.Errorf("Use Case: Error retrieving user %s during auth: %v", email, err)
			return nil, fmt.Errorf("failed to retrieve user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(uc.dummyHash, []byte(password))
		uc.log.Warnf("Use Case: Auth failed - user not found: %s", email)
		return nil, errInvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			uc.log.Errorf("Use Case: Error comparing password hash for user %d: %v", user.ID, err)
		}
		uc.log.Warnf("Use Case: Auth failed - incorrect password for user %d", user.ID)
		return nil, errInvalidCredentials()
	}
	if user.Status != domain.StatusActive {
		uc.log.Warnf("Use Case: Auth failed - user %d is %s", user.ID, user.Status)
		return nil, errInvalidCredentials()
	}

	uc.log.Infof("Use Case: Authentication successful for user %d", user.ID)
	return uc.authResponse(user)
}

func (uc *userUseCase) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	user, err := uc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.UnauthorizedError("user not found")
		}
		return nil, err
	}
	return user.Profile(), nil
}

func (uc *userUseCase) UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			// an empty name leaves the current one in place
			update.FullName = nil
		} else {
			update.FullName = &name
		}
	}
	if update.IsEmpty() {
		return uc.GetProfile(ctx, userID)
	}

	user, err := uc.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.UnauthorizedError("user not found")
		}
		uc.log.Errorf("Use Case: Failed to update profile of user %d: %v", userID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Profile updated for user %d", userID)
	return user.Profile(), nil
}

func (uc *userUseCase) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := uc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UnauthorizedError("user not found")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		uc.log.Warnf("Use Case: Password change rejected for user %d - current password incorrect", userID)
		return domain.ValidationError("current password incorrect")
	}
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return domain.ValidationError("new password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("internal error processing password: %w", err)
	}
	if err := uc.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		uc.log.Errorf("Use Case: Failed to store new password for user %d: %v", userID, err)
		return err
	}

	uc.log.Infof("Use Case: Password changed for user %d", userID)
	return nil
}

// EnsureAdmin creates the bootstrap administrator unless the email is taken.
func (uc *userUseCase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if _, err := uc.userRepo.GetUserByEmail(ctx, email); err == nil {
		uc.log.Infof("Use Case: Admin account %s already exists", email)
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("internal error processing password: %w", err)
	}
	user, err := uc.userRepo.CreateUser(ctx, &domain.User{
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Status:       domain.StatusActive,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return err
	}

	uc.log.Infof("Use Case: Admin account created with ID %d", user.ID)
	return nil
}

func (uc *userUseCase) authResponse(user *domain.User) (*domain.AuthResponse, error) {
	token, err := uc.tokens.IssueToken(user)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to issue token for user %d: %v", user.ID, err)
		return nil, fmt.Errorf("could not issue access token: %w", err)
	}
	return &domain.AuthResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		AccessToken: token,
	}, nil
}

func errInvalidCredentials() error {
	return domain.UnauthorizedError("invalid credentials")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return domain.ValidationError("password must be at least %d characters long", minPasswordLength)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/sport-sections-api/internal/dto"
	"github.com/noah-isme/sport-sections-api/internal/models"
	"github.com/noah-isme/sport-sections-api/internal/repository"
	"github.com/noah-isme/sport-sections-api/internal/session"
)

// AuthConfig tunes session lifetime and password hashing.
type AuthConfig struct {
	SessionTTL time.Duration
	BcryptCost int
}

// AuthService manages accounts and resolves session tokens to users.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, actor Actor) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, actor Actor, req dto.ProfileUpdateRequest) (dto.UserResponse, error)
	// ResolveSession returns ErrUnauthorized for an empty token and (nil, nil) for an unknown one.
	ResolveSession(ctx context.Context, token string) (*models.User, error)
	// ResolveModeratorSession returns ErrUnauthorized, ErrSessionNotFound or ErrNotModerator.
	ResolveModeratorSession(ctx context.Context, token string) (*models.User, error)
	EnsureSuperuser(ctx context.Context, email, password string) error
}

type authService struct {
	users     repository.UserRepository
	sessions  session.Store
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	cfg       AuthConfig
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, sessions session.Store, activity ActivityRecorder, validate *validator.Validate, cfg AuthConfig, logger zerolog.Logger) AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		users:     users,
		sessions:  sessions,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		cfg:       cfg,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	email := normalizeEmail(req.Email)
	if err := s.ensureEmailAvailable(ctx, email, 0); err != nil {
		return dto.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActorFromUser(user), ActionUserRegistered, entityUser, user.ID, nil)
	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")

	return dto.NewUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.sessions.Set(ctx, token, user.ID); err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.SessionTTL.Seconds()),
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrUnauthorized
	}
	return s.sessions.Delete(ctx, token)
}

func (s *authService) Profile(ctx context.Context, actor Actor) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) UpdateProfile(ctx context.Context, actor Actor, req dto.ProfileUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			if err := s.ensureEmailAvailable(ctx, email, user.ID); err != nil {
				return dto.UserResponse{}, err
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.cfg.BcryptCost)
		if err != nil {
			return dto.UserResponse{}, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}

	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (s *authService) ResolveModeratorSession(ctx context.Context, token string) (*models.User, error) {
	user, err := s.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeSession(token, user, true); err != nil {
		return nil, err
	}
	return user, nil
}

// AuthorizeSession applies the access rules for a resolved session: a missing token is
// ErrUnauthorized, a token without a user is ErrSessionNotFound and a regular user asking
// for moderator access is ErrNotModerator.
func AuthorizeSession(token string, user *models.User, requireModerator bool) error {
	if strings.TrimSpace(token) == "" {
		return ErrUnauthorized
	}
	if user == nil {
		return ErrSessionNotFound
	}
	if requireModerator && !user.IsModerator() {
		return ErrNotModerator
	}
	return nil
}

func (s *authService) EnsureSuperuser(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsStaff && user.IsSuperuser {
			return nil
		}
		user.IsStaff = true
		user.IsSuperuser = true
		return s.users.Update(ctx, &user)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	user = models.User{
		Email:        email,
		PasswordHash: string(hash),
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("superuser created")
	return nil
}

func (s *authService) ensureEmailAvailable(ctx context.Context, email string, selfID uint) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return ErrEmailTaken
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

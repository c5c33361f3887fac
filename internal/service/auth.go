package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/repository"
	"fleet-backoffice/internal/security"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotApproved    = errors.New("user is not approved")
	ErrUsernameTaken      = errors.New("username already exists")
)

type authService struct {
	userRepo repository.UserRepository
	tokens   security.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, tokens security.TokenManager) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.WarnContext(ctx, "Login rejected", "username", user.Username)
		return "", nil, ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusApproved {
		return "", nil, ErrUserNotApproved
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}

func (s *authService) CreateUser(ctx context.Context, name, username, email, password string, role domain.UserRole) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidf("username and password are required")
	}
	if role == "" {
		role = domain.UserRoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserStatusApproved,
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrUsernameTaken
	}
	return user, nil
}

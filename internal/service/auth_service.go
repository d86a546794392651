package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ChangePassword(userID uuid.UUID, oldPassword, newPassword string) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	Heartbeat(actor Actor) error
}

type LoginResponse struct {
	Token       string             `json:"token"`
	User        model.UserResponse `json:"user"`
	Role        model.Role         `json:"role"`
	Permissions []model.Permission `json:"permissions"` // Flat array for easy checking
}

type TokenValidationResponse struct {
	User        model.UserResponse `json:"user"`
	Role        model.Role         `json:"role"`
	Permissions []model.Permission `json:"permissions"`
}

type authService struct {
	userRepo repository.UserRepository
	jwt      *jwt.Manager
	wsHub    *ws.Hub
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtManager *jwt.Manager, hub *ws.Hub, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		jwt:      jwtManager,
		wsHub:    hub,
		log:      log.Named("auth"),
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Single session: a new token version invalidates older tokens
	tokenVersion := uuid.New().String()
	if err := s.userRepo.UpdateSession(user.ID, tokenVersion); err != nil {
		return nil, errors.New("failed to update session")
	}
	now := time.Now()
	user.TokenVersion = tokenVersion
	user.LastSeenAt = &now

	// 5. Generate JWT token with TokenVersion
	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Name, string(user.Role), tokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.log.Info("user logged in", zap.String("user", user.Email), zap.String("role", string(user.Role)))

	return &LoginResponse{
		Token:       token,
		User:        user.ToResponse(),
		Role:        user.Role,
		Permissions: user.Role.Permissions(),
	}, nil
}

func (s *authService) ChangePassword(userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return ErrUserNotFound
	}

	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}

	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}

	// Rotating the version signs out every token issued before the change
	if err := s.userRepo.UpdateSession(user.ID, uuid.New().String()); err != nil {
		return errors.New("failed to update session")
	}
	s.log.Info("password changed", zap.String("user", user.Email))
	return nil
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	// 1. Validate JWT token
	claims, err := s.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	// 2. Find user by ID from token claims
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 3. Check if user is still active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Strict session: the token must carry the latest version
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	return &TokenValidationResponse{
		User:        user.ToResponse(),
		Role:        user.Role,
		Permissions: user.Role.Permissions(),
	}, nil
}

func (s *authService) Heartbeat(actor Actor) error {
	userID, err := uuid.Parse(actor.ID)
	if err != nil {
		return ErrUserNotFound
	}
	if err := s.userRepo.UpdateLastSeen(userID); err != nil {
		return err
	}

	// Broadcast on every heartbeat so newly connected clients catch up.
	s.wsHub.Publish(ws.Event{
		Type:   "user_status_update",
		Action: "online",
		User:   actor.eventUser(),
	})
	return nil
}

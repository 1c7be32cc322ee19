package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/auth"
	"github.com/sirupsen/logrus"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *entity.User `json:"user"`
}

type userService struct {
	userRepo   database.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     logrus.FieldLogger
}

func NewUserService(userRepo database.UserRepository, tokens *auth.TokenManager, bcryptCost int) UserService {
	return &userService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logrus.WithField("component", "user_service"),
	}
}

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")
	return s.issue(user)
}

func (s *userService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, entity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, entity.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *userService) Me(ctx context.Context, userID int64) (*entity.User, error) {
	if userID <= 0 {
		return nil, entity.ErrUnauthorized
	}
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) issue(user *entity.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Generate(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

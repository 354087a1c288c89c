package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/media"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/maxim190404/foodgram-st/pkg/storage"
	"golang.org/x/crypto/bcrypt"
)

const avatarPrefix = "users/avatars"

type UserService struct {
	userRepo  *repository.UserRepository
	presenter *presenter
	storage   storage.ObjectStorage
	producer  queue.EventPublisher
	logger    *logger.Logger
}

func NewUserService(
	userRepo *repository.UserRepository,
	followRepo *repository.FollowRepository,
	storage storage.ObjectStorage,
	producer queue.EventPublisher,
	logger *logger.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		presenter: newPresenter(followRepo, nil, nil, nil),
		storage:   storage,
		producer:  producer,
		logger:    logger,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,max=128"`
}

// RegisteredUser is returned once on sign-up.
type RegisteredUser struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*RegisteredUser, error) {
	// check username
	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, apperr.ErrUsernameTaken
	}

	// check email
	existing, err = s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, apperr.ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashedPassword),
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.takenError(ctx, user)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	publish(ctx, s.producer, s.logger, userKey(user.ID), queue.NewEvent(queue.EventUserRegistered, queue.UserEventData{
		UserID:   user.ID,
		Username: user.Username,
	}))

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return &RegisteredUser{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

// takenError tells which unique field a concurrent sign-up claimed first.
func (s *UserService) takenError(ctx context.Context, user *models.User) error {
	if existing, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil && existing != nil {
		return apperr.ErrUsernameTaken
	}
	return apperr.ErrEmailTaken
}

// Login checks the credentials and returns the user to issue a token for.
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, apperr.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, userID uint, baseURL string) (*UserSummary, error) {
	return s.Get(ctx, userID, userID, baseURL)
}

// Get returns a user's profile as seen by viewerID (0 for anonymous).
func (s *UserService) Get(ctx context.Context, viewerID, userID uint, baseURL string) (*UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}

	view, err := s.presenter.user(ctx, viewerID, user, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build user view: %w", err)
	}
	return view, nil
}

func (s *UserService) List(ctx context.Context, viewerID uint, page Pagination, baseURL string) (*Page[UserSummary], error) {
	users, count, err := s.userRepo.List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	views, err := s.presenter.users(ctx, viewerID, users, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build user views: %w", err)
	}
	return &Page[UserSummary]{Count: count, Items: views}, nil
}

func (s *UserService) SetPassword(ctx context.Context, userID uint, req *SetPasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return apperr.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return apperr.ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		return err
	}

	s.logger.WithField("user_id", userID).Info("Password changed successfully")
	return nil
}

// SetAvatar stores img as the user's avatar and returns its absolute URL.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, img *media.Image, baseURL string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", apperr.ErrUserNotFound
	}

	ref, err := s.storage.Store(ctx, img.Data, img.ObjectName(avatarPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	if err := s.userRepo.UpdateAvatar(ctx, userID, ref); err != nil {
		if delErr := s.storage.Delete(ctx, ref); delErr != nil {
			s.logger.WithError(delErr).WithField("avatar", ref).Warn("Failed to delete orphaned avatar")
		}
		return "", err
	}

	publish(ctx, s.producer, s.logger, userKey(userID), queue.NewEvent(queue.EventAvatarUpdated, queue.AvatarEventData{
		UserID:      userID,
		Avatar:      ref,
		StaleAvatar: user.Avatar,
	}))

	s.logger.WithField("user_id", userID).Info("Avatar updated successfully")
	return media.AbsoluteURL(baseURL, ref), nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return apperr.ErrUserNotFound
	}
	if user.Avatar == "" {
		return apperr.ErrAvatarNotSet
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, ""); err != nil {
		return err
	}

	publish(ctx, s.producer, s.logger, userKey(userID), queue.NewEvent(queue.EventAvatarDeleted, queue.AvatarEventData{
		UserID:      userID,
		StaleAvatar: user.Avatar,
	}))

	s.logger.WithField("user_id", userID).Info("Avatar deleted successfully")
	return nil
}

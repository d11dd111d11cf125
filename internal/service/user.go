package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/repository"
	"github.com/templui/secondbrain/internal/validation"
)

type UpdateProfileInput struct {
	Name  *string
	Email *string
}

type UserService struct {
	userRepository repository.UserRepository
	authService    *AuthService
	fileService    *FileService
}

func NewUserService(userRepository repository.UserRepository, authService *AuthService, fileService *FileService) *UserService {
	return &UserService{
		userRepository: userRepository,
		authService:    authService,
		fileService:    fileService,
	}
}

func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes name and/or email. At least one must be given.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	if in.Name == nil && in.Email == nil {
		return nil, &ValidationError{Message: "name or email is required"}
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		err = validation.ValidateName(name)
		if err != nil {
			return nil, invalid("name", err)
		}
		user.Name = &name
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		err = validation.ValidateEmail(email)
		if err != nil {
			return nil, invalid("email", err)
		}

		if email != user.Email {
			existing, err := s.userRepository.ByEmail(ctx, email)
			if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if existing != nil && existing.ID != user.ID {
				return nil, ErrDuplicateIdentity
			}
		}
		user.Email = email
	}

	user.UpdatedAt = time.Now().UTC()

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateIdentity
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	err = s.authService.ComparePassword(currentPassword, user.PasswordHash)
	if err != nil {
		return ErrInvalidCredential
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return invalid("newPassword", err)
	}

	hash, err := s.authService.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}

// DeleteAccount removes the user and, through the cascade, all their content.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	err := s.fileService.DeleteAllUserFilesFromStorage(ctx, userID)
	if err != nil {
		// Orphaned objects are better than a failed deletion
		slog.Warn("failed to delete user files from storage", "user_id", userID, "error", err)
	}

	err = s.userRepository.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}

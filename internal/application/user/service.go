package user

import (
	"context"
	"errors"
	"strings"

	"coinvest-backend/internal/domain"
	"coinvest-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service handles account creation and lookup. The referrer reference is
// bound here, at registration, and never changes afterwards.
type Service struct {
	DB *gorm.DB
}

// RegisterInput is the registration payload. ReferralCode is optional.
type RegisterInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Fullname     string `json:"fullname"`
	ReferralCode string `json:"referral_code"`
}

// Register creates a user. An invalid or unknown referral code fails the
// registration rather than silently dropping the referrer.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Email == "" || !validation.IsValidEmail(in.Email) {
		return nil, errors.New("Invalid email format")
	}
	if in.Password == "" || !validation.IsValidPassword(in.Password) {
		return nil, errors.New("Password must be at least 8 characters with a letter, a number and a special character")
	}
	fullname := strings.TrimSpace(in.Fullname)
	if fullname == "" || !validation.IsValidFullname(fullname) {
		return nil, errors.New("Full name is required (letters, spaces, hyphens and apostrophes only)")
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	var existing domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, errors.New("Email already registered")
	}

	var referredBy *uuid.UUID
	if code := strings.TrimSpace(strings.ToLower(in.ReferralCode)); code != "" {
		if !validation.IsValidReferralCode(code) {
			return nil, errors.New("Invalid referral code")
		}
		var referrer domain.User
		if err := s.DB.WithContext(ctx).Where("referral_code = ?", code).First(&referrer).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.New("Invalid referral code")
			}
			return nil, err
		}
		referredBy = &referrer.UserID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Fullname:     fullname,
		Role:         domain.RoleUser,
		ReferralCode: newReferralCode(),
		ReferredBy:   referredBy,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks email/password and returns the user on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(strings.ToLower(email))).
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("Invalid email or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errors.New("Invalid email or password")
	}
	return &u, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// newReferralCode issues the short code users share. First UUID block: short
// enough to type, unique enough for a demo platform (collisions surface as a
// unique-index violation at insert).
func newReferralCode() string {
	return uuid.New().String()[:8]
}

package dataservice

import (
	"context"
	"strings"

	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/pkg/constants"
	"souk-backend/internal/pkg/response"
	"souk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ProfilePatch updates the current user's profile. Nil fields are left alone.
type ProfilePatch struct {
	Username *string `json:"username,omitempty"`
	FullName *string `json:"fullName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Wilaya   *string `json:"wilaya,omitempty"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Wilaya   string `json:"wilaya"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) currentProfile(ctx context.Context) domain.User {
	return storage.Load(ctx, s.store, storage.ProfileKey, s.profile)
}

// GetProfile returns the stored profile, or the default profile when none is stored.
func (s *Service) GetProfile(ctx context.Context) response.Result[domain.User] {
	return passthrough(ctx, s, s.mockUser(), fiber.MethodGet, "/user/profile", nil, func() response.Result[domain.User] {
		return response.OK(s.currentProfile(ctx).Public())
	})
}

func (s *Service) UpdateProfile(ctx context.Context, p ProfilePatch) response.Result[domain.User] {
	return passthrough(ctx, s, s.mockUser(), fiber.MethodPut, "/user/profile", p, func() response.Result[domain.User] {
		if p.Email != nil && !validation.IsValidEmail(*p.Email) {
			return response.Fail[domain.User](domain.ErrInvalidEmail)
		}
		if err := checkContact(p.FullName, p.Phone); err != nil {
			return response.Fail[domain.User](err)
		}
		s.docMu.Lock()
		defer s.docMu.Unlock()
		u := s.currentProfile(ctx)
		for dst, v := range map[*string]*string{
			&u.Username: p.Username,
			&u.FullName: p.FullName,
			&u.Email:    p.Email,
			&u.Phone:    p.Phone,
			&u.Wilaya:   p.Wilaya,
		} {
			if v != nil {
				*dst = strings.TrimSpace(*v)
			}
		}
		if err := s.save(ctx, storage.ProfileKey, u); err != nil {
			return response.Fail[domain.User](err)
		}
		return response.OKMessage(u.Public(), "Profile updated successfully")
	})
}

// RegisterUser creates a signup account in the mock user store and makes it the current profile.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) response.Result[domain.User] {
	return passthrough(ctx, s, s.mockUser(), fiber.MethodPost, "/auth/register", in, func() response.Result[domain.User] {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if !validation.IsValidEmail(email) {
			return response.Fail[domain.User](domain.ErrInvalidEmail)
		}
		if !validation.IsValidPassword(in.Password) {
			return response.Fail[domain.User](domain.ErrWeakPassword)
		}
		if err := checkContact(&in.FullName, &in.Phone); err != nil {
			return response.Fail[domain.User](err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("Failed to hash password")
			return response.FailMessage[domain.User]("Failed to create account")
		}

		s.docMu.Lock()
		defer s.docMu.Unlock()
		signups := storage.Load[[]domain.User](ctx, s.store, storage.SignupUsersKey, nil)
		admins := storage.Load[[]domain.User](ctx, s.store, storage.AdminUsersKey, nil)
		if findByEmail(signups, email) >= 0 || findByEmail(admins, email) >= 0 {
			return response.Fail[domain.User](domain.ErrEmailTaken)
		}
		u := domain.User{
			ID:           s.ids.New(),
			Email:        email,
			Username:     strings.Split(email, "@")[0],
			FullName:     strings.TrimSpace(in.FullName),
			Phone:        in.Phone,
			Wilaya:       in.Wilaya,
			Role:         constants.RoleUser,
			IsActive:     true,
			PasswordHash: string(hash),
			CreatedAt:    s.clock.Now(),
		}
		if err := s.saveQuiet(ctx, storage.SignupUsersKey, append(signups, u)); err != nil {
			return response.Fail[domain.User](err)
		}
		if err := s.save(ctx, storage.ProfileKey, u.Public()); err != nil {
			return response.Fail[domain.User](err)
		}
		log.Info().Str("user_id", u.ID).Msg("User registered")
		return response.OKMessage(u.Public(), "Account created successfully")
	})
}

// Login checks credentials against the signup store and makes the account the current profile.
func (s *Service) Login(ctx context.Context, in LoginInput) response.Result[domain.User] {
	return passthrough(ctx, s, s.mockUser(), fiber.MethodPost, "/auth/login", in, func() response.Result[domain.User] {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		s.docMu.Lock()
		defer s.docMu.Unlock()
		signups := storage.Load[[]domain.User](ctx, s.store, storage.SignupUsersKey, nil)
		i := findByEmail(signups, email)
		if i < 0 || signups[i].PasswordHash == "" {
			return response.Fail[domain.User](domain.ErrInvalidCredentials)
		}
		u := signups[i]
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
			return response.Fail[domain.User](domain.ErrInvalidCredentials)
		}
		if !u.IsActive {
			return response.Fail[domain.User](domain.ErrAccountDisabled)
		}
		if err := s.save(ctx, storage.ProfileKey, u.Public()); err != nil {
			return response.Fail[domain.User](err)
		}
		return response.OKMessage(u.Public(), "Login successful")
	})
}

// checkContact validates optional name and phone fields. Nil or blank values pass.
func checkContact(fullName, phone *string) error {
	if fullName != nil {
		if v := strings.TrimSpace(*fullName); v != "" && !validation.IsValidFullname(v) {
			return domain.ErrInvalidFullName
		}
	}
	if phone != nil {
		if v := strings.TrimSpace(*phone); v != "" && !validation.IsValidPhone(v) {
			return domain.ErrInvalidPhone
		}
	}
	return nil
}

func findByEmail(users []domain.User, email string) int {
	for i, u := range users {
		if strings.EqualFold(u.Email, email) {
			return i
		}
	}
	return -1
}

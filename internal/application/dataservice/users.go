package dataservice

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/pkg/constants"
	"souk-backend/internal/pkg/response"
	"souk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const defaultUserLimit = 50

// UserFilter narrows AdminListUsers. A nil IsActive matches both states.
type UserFilter struct {
	Query    string
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

type UserPage struct {
	Users []domain.User `json:"users"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type CreateUserInput struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

type UserPatch struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	FullName *string `json:"fullName,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Wilaya   *string `json:"wilaya,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
	Verified *bool   `json:"verified,omitempty"`
}

var rosterCreatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// defaultAdminUsers is the roster shown before any admin edit.
func defaultAdminUsers() []domain.User {
	return []domain.User{
		{ID: "1", Email: "demo@souk.dz", Username: "demo", FullName: "Utilisateur Démo", Wilaya: "Alger", Role: constants.RoleSuperAdmin, IsActive: true, Verified: true, CreatedAt: rosterCreatedAt},
		{ID: "2", Email: "moderation@souk.dz", Username: "moderation", FullName: "Equipe Modération", Wilaya: "Oran", Role: constants.RoleAdmin, IsActive: true, Verified: true, CreatedAt: rosterCreatedAt},
		{ID: "3", Email: "eleveur@souk.dz", Username: "eleveur", FullName: "Karim Eleveur", Wilaya: "Sétif", Role: constants.RoleUser, IsActive: true, Verified: true, CreatedAt: rosterCreatedAt},
	}
}

func (s *Service) adminUsers(ctx context.Context) []domain.User {
	return storage.Load(ctx, s.store, storage.AdminUsersKey, defaultAdminUsers())
}

func (f UserFilter) query() string {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Role != "" {
		v.Set("role", f.Role)
	}
	if f.IsActive != nil {
		v.Set("isActive", strconv.FormatBool(*f.IsActive))
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (f UserFilter) match(u domain.User) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(u.Email), q) &&
			!strings.Contains(strings.ToLower(u.Username), q) &&
			!strings.Contains(strings.ToLower(u.FullName), q) {
			return false
		}
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	return f.IsActive == nil || u.IsActive == *f.IsActive
}

// AdminListUsers merges the admin roster with signup accounts. Signup accounts get
// numeric ids after the highest roster id and are dropped when their email is already listed.
func (s *Service) AdminListUsers(ctx context.Context, f UserFilter) response.Result[UserPage] {
	return passthrough(ctx, s, s.mockUser(), fiber.MethodGet, "/admin/users"+f.query(), nil, func() response.Result[UserPage] {
		roster := s.adminUsers(ctx)
		signups := storage.Load[[]domain.User](ctx, s.store, storage.SignupUsersKey, nil)
		all := make([]domain.User, 0, len(roster)+len(signups))
		all = append(all, roster...)
		base := maxNumericID(roster)
		for i, u := range signups {
			if findByEmail(all, u.Email) >= 0 {
				continue
			}
			u.ID = strconv.Itoa(base + i + 1)
			if u.FullName == "" {
				u.FullName = u.Username
			}
			if u.Role == "" {
				u.Role = constants.RoleUser
			}
			all = append(all, u)
		}
		filtered := make([]domain.User, 0, len(all))
		for _, u := range all {
			if f.match(u) {
				filtered = append(filtered, u.Public())
			}
		}
		page, limit := f.Page, f.Limit
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = defaultUserLimit
		}
		return response.OK(UserPage{Users: filtered, Total: len(filtered), Page: page, Limit: limit})
	})
}

// AdminCreateUser prepends a user to the roster with the next numeric id.
func (s *Service) AdminCreateUser(ctx context.Context, in CreateUserInput) response.Result[domain.User] {
	return passthrough(ctx, s, s.mockUser(), fiber.MethodPost, "/admin/users", in, func() response.Result[domain.User] {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if !validation.IsValidEmail(email) {
			return response.Fail[domain.User](domain.ErrInvalidEmail)
		}
		role := in.Role
		if role == "" {
			role = constants.RoleUser
		}
		if !constants.IsValidRole(role) {
			return response.Fail[domain.User](domain.ErrInvalidRole)
		}
		if err := checkContact(&in.FullName, nil); err != nil {
			return response.Fail[domain.User](err)
		}

		s.docMu.Lock()
		defer s.docMu.Unlock()
		users := s.adminUsers(ctx)
		if findByEmail(users, email) >= 0 {
			return response.Fail[domain.User](domain.ErrEmailTaken)
		}
		next := maxNumericID(users) + 1
		u := domain.User{
			ID:        strconv.Itoa(next),
			Email:     email,
			Username:  in.Username,
			FullName:  in.FullName,
			Role:      role,
			IsActive:  in.IsActive == nil || *in.IsActive,
			Verified:  in.Verified,
			CreatedAt: s.clock.Now(),
		}
		if u.Username == "" {
			u.Username = "user" + u.ID
		}
		if in.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
			if err != nil {
				return response.FailMessage[domain.User]("Failed to create user")
			}
			u.PasswordHash = string(hash)
		}
		if err := s.save(ctx, storage.AdminUsersKey, append([]domain.User{u}, users...)); err != nil {
			return response.Fail[domain.User](err)
		}
		return response.OKMessage(u.Public(), "User created successfully")
	})
}

func (s *Service) AdminUpdateUser(ctx context.Context, id string, p UserPatch) response.Result[domain.User] {
	return passthrough(ctx, s, s.mockUser(), fiber.MethodPatch, "/admin/users/"+url.PathEscape(id), p, func() response.Result[domain.User] {
		if p.Role != nil && !constants.IsValidRole(*p.Role) {
			return response.Fail[domain.User](domain.ErrInvalidRole)
		}
		if p.Email != nil && !validation.IsValidEmail(*p.Email) {
			return response.Fail[domain.User](domain.ErrInvalidEmail)
		}
		if err := checkContact(p.FullName, p.Phone); err != nil {
			return response.Fail[domain.User](err)
		}
		s.docMu.Lock()
		defer s.docMu.Unlock()
		users := s.adminUsers(ctx)
		i := findByID(users, id)
		if i < 0 {
			return response.Fail[domain.User](domain.ErrNotFound)
		}
		prev := users[i]
		u := &users[i]
		for dst, v := range map[*string]*string{
			&u.Email:    p.Email,
			&u.Username: p.Username,
			&u.FullName: p.FullName,
			&u.Phone:    p.Phone,
			&u.Wilaya:   p.Wilaya,
			&u.Role:     p.Role,
		} {
			if v != nil {
				*dst = *v
			}
		}
		if p.IsActive != nil {
			u.IsActive = *p.IsActive
		}
		if p.Verified != nil {
			u.Verified = *p.Verified
		}
		if activeSuperAdmin(prev) && !activeSuperAdmin(*u) && !otherSuperAdmin(users, i) {
			return response.Fail[domain.User](domain.ErrLastSuperAdmin)
		}
		if err := s.save(ctx, storage.AdminUsersKey, users); err != nil {
			return response.Fail[domain.User](err)
		}
		return response.OK(u.Public())
	})
}

// AdminDeleteUser removes a roster entry. Unknown ids succeed without a write.
func (s *Service) AdminDeleteUser(ctx context.Context, id string) response.Result[DeleteResult] {
	return passthrough(ctx, s, s.mockUser(), fiber.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, func() response.Result[DeleteResult] {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		users := s.adminUsers(ctx)
		i := findByID(users, id)
		if i < 0 {
			return response.OK(DeleteResult{ID: id})
		}
		if activeSuperAdmin(users[i]) && !otherSuperAdmin(users, i) {
			return response.Fail[DeleteResult](domain.ErrLastSuperAdmin)
		}
		users = append(users[:i], users[i+1:]...)
		if err := s.save(ctx, storage.AdminUsersKey, users); err != nil {
			return response.Fail[DeleteResult](err)
		}
		return response.OK(DeleteResult{ID: id, Deleted: true})
	})
}

func maxNumericID(users []domain.User) int {
	top := 0
	for _, u := range users {
		if n, err := strconv.Atoi(u.ID); err == nil && n > top {
			top = n
		}
	}
	return top
}

// findByID compares numerically when both ids are numbers, so "07" matches "7".
func findByID(users []domain.User, id string) int {
	n, numErr := strconv.Atoi(id)
	for i, u := range users {
		if u.ID == id {
			return i
		}
		if numErr == nil {
			if m, err := strconv.Atoi(u.ID); err == nil && m == n {
				return i
			}
		}
	}
	return -1
}

func activeSuperAdmin(u domain.User) bool {
	return u.IsActive && u.Role == constants.RoleSuperAdmin
}

// otherSuperAdmin reports whether an active super admin other than users[skip] exists.
func otherSuperAdmin(users []domain.User, skip int) bool {
	for i, u := range users {
		if i != skip && activeSuperAdmin(u) {
			return true
		}
	}
	return false
}

package services

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/store"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrWeakPassword         = errors.New("password must be at least 6 characters")
	ErrInvalidRole          = errors.New("invalid role")
	ErrCannotRemoveOwnAdmin = errors.New("cannot remove your own admin role")
	ErrCannotDeleteSelf     = errors.New("cannot delete your own account")
	ErrUserDataRequired     = errors.New("username, email and password are required")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

// UserService manages user accounts.
type UserService struct {
	store      *store.Store
	bcryptCost int
}

func NewUserService(s *store.Store, bcryptCost int) *UserService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{store: s, bcryptCost: bcryptCost}
}

type CreateUserRequest struct {
	Username   string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Department string
	Team       string
	Supervisor string
	Role       string
	IsActive   *bool
}

// UpdateUserRequest carries a partial update. Nil pointers leave the field
// untouched.
type UpdateUserRequest struct {
	Email      *string
	Password   *string
	FirstName  *string
	LastName   *string
	Department *string
	Team       *string
	Supervisor *string
	Role       *string
	IsActive   *bool
}

// orgField normalizes an organization attribute to the unset sentinel.
func orgField(v string) string {
	if strings.TrimSpace(v) == "" {
		return models.OrgFieldUnset
	}
	return strings.TrimSpace(v)
}

func (s *UserService) CreateUser(req CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if username == "" || email == "" || req.Password == "" {
		return nil, ErrUserDataRequired
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	// Duplicate checks before insert so the caller gets a specific error
	// instead of a driver-dependent constraint failure.
	if _, err := s.store.GetUserByEmail(email); err == nil {
		return nil, ErrUserExists
	}
	if _, err := s.store.GetUserByUsername(username); err == nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Department:   orgField(req.Department),
		Team:         orgField(req.Team),
		Supervisor:   orgField(req.Supervisor),
		Role:         role,
		IsActive:     active,
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial update. actorID is the authenticated caller;
// an admin cannot demote their own role.
func (s *UserService) UpdateUser(id, actorID string, req UpdateUserRequest) (*models.User, error) {
	user, err := s.store.GetUserByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			return nil, ErrInvalidRole
		}
		if id == actorID && user.Role == models.RoleAdmin && *req.Role != models.RoleAdmin {
			return nil, ErrCannotRemoveOwnAdmin
		}
		user.Role = *req.Role
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !emailPattern.MatchString(email) {
			return nil, ErrInvalidEmail
		}
		if email != user.Email {
			if _, err := s.store.GetUserByEmail(email); err == nil {
				return nil, ErrUserExists
			}
			user.Email = email
		}
	}

	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			return nil, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Department != nil {
		user.Department = orgField(*req.Department)
	}
	if req.Team != nil {
		user.Team = orgField(*req.Team)
	}
	if req.Supervisor != nil {
		user.Supervisor = orgField(*req.Supervisor)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.store.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user. Users cannot delete their own account.
func (s *UserService) DeleteUser(id, actorID string) error {
	if id == actorID {
		return ErrCannotDeleteSelf
	}
	if _, err := s.store.GetUserByID(id); err != nil {
		return ErrUserNotFound
	}
	return s.store.DeleteUser(id)
}

func (s *UserService) GetUser(id string) (*models.User, error) {
	user, err := s.store.GetUserByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ListUsers(
	params store.PaginationParams,
	role string,
) ([]models.User, store.PaginationResult, error) {
	return s.store.ListUsers(params, role)
}

// UserStats summarizes the user table for the admin dashboard.
type UserStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Admins int64 `json:"admins"`
}

func (s *UserService) GetUserStats() (*UserStats, error) {
	total, err := s.store.CountUsersByField("is_active", true)
	if err != nil {
		return nil, err
	}
	inactive, err := s.store.CountUsersByField("is_active", false)
	if err != nil {
		return nil, err
	}
	admins, err := s.store.CountUsersByField("role", models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		Total:  total + inactive,
		Active: total,
		Admins: admins,
	}, nil
}

package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
	"github.com/traindesk/traindesk-backend/internal/response"
)

// UserService handles user account management.
type UserService struct {
	userRepo    *repository.UserRepository
	authService *AuthService
	log         zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, authService *AuthService, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo:    userRepo,
		authService: authService,
		log:         log.With().Str("component", "user_service").Logger(),
	}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List retrieves users with pagination and an optional role filter.
func (s *UserService) List(ctx context.Context, role string, page, perPage int) ([]model.User, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	users, total, err := s.userRepo.ListPaginated(ctx, role, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if users == nil {
		users = []model.User{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return users, pagination, nil
}

// Create inserts a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.Role(req.Role),
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", user.ID).Str("role", req.Role).Msg("User created")
	return user, nil
}

// Update modifies a user. An empty password keeps the current one.
func (s *UserService) Update(ctx context.Context, id int, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = req.Email
	user.Username = req.Username
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Role = model.Role(req.Role)

	user.PasswordHash = ""
	if req.Password != "" {
		hash, err := s.authService.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.userRepo.Delete(ctx, id)
}

// Authenticate verifies credentials and returns the user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.authService.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-fabric-retail/internal/model"
	"go-fabric-retail/internal/repository"
	"go-fabric-retail/pkg/validator"
)

type CreateUserInput struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	FullName string     `json:"fullName" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=admin staff"`
}

type UpdateUserInput struct {
	FullName string     `json:"fullName" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=admin staff"`
	IsActive *bool      `json:"isActive"`
	Password string     `json:"password" validate:"omitempty,min=8"`
}

type UserService interface {
	CreateUser(input CreateUserInput) (*model.UserResponse, error)
	UpdateUser(id uuid.UUID, input UpdateUserInput) (*model.UserResponse, error)
	DeactivateUser(id uuid.UUID) error
	GetUser(id uuid.UUID) (*model.UserResponse, error)
	ListUsers() ([]model.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(input CreateUserInput) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(input); len(errs) > 0 {
		first := errs[0]
		return nil, validationErrorf("Validation failed: field '%s' failed on '%s'", first.FailedField, first.Tag)
	}

	existing, err := s.userRepo.FindByEmail(input.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, validationErrorf("Email already registered: %s", input.Email)
	}

	user := &model.User{
		Email:    input.Email,
		FullName: input.FullName,
		Role:     input.Role,
		IsActive: true,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateUser(id uuid.UUID, input UpdateUserInput) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(input); len(errs) > 0 {
		first := errs[0]
		return nil, validationErrorf("Validation failed: field '%s' failed on '%s'", first.FailedField, first.Tag)
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.FullName = input.FullName
	user.Role = input.Role
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != "" {
		if err := user.SetPassword(input.Password); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) DeactivateUser(id uuid.UUID) error {
	err := s.userRepo.Deactivate(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *userService) GetUser(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) ListUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

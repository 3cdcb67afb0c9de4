package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/repositories"
)

type UserService interface {
	CreateUser(user *models.User, plainPassword string) error
	GetUserByID(id int) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	UpdateUser(user *models.User) error
	UpdatePassword(userID int, plainPassword string) error
	DeleteUser(id int) error
	ListUsers(limit, offset int, withIdentities bool) ([]*models.User, error)
	Activate(userID int) error
	Deactivate(userID int) error
}

type userService struct {
	repo         repositories.UserRepository
	identities   repositories.IdentityRepository
	emailService EmailService
	authService  AuthService
}

func NewUserService(
	repo repositories.UserRepository,
	identities repositories.IdentityRepository,
	emailService EmailService,
	authService AuthService,
) UserService {
	return &userService{
		repo:         repo,
		identities:   identities,
		emailService: emailService,
		authService:  authService,
	}
}

func (s *userService) CreateUser(user *models.User, plainPassword string) error {
	if strings.TrimSpace(plainPassword) == "" {
		return fmt.Errorf("password is required")
	}
	if strings.TrimSpace(user.Phone) == "" {
		return fmt.Errorf("phone is required")
	}

	hash, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	// Пользователь и password-identity пишутся одной операцией; ошибка
	// identity откатывает и пользователя.
	if err := s.repo.Create(user); err != nil {
		return err
	}

	if s.emailService != nil && user.Email != "" {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.Username); err != nil {
			// warn but do not fail creation
			log.Printf("CreateUser: warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}
	return nil
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetUserByPhone(phone string) (*models.User, error) {
	return s.repo.GetByPhone(strings.TrimSpace(phone))
}

func (s *userService) UpdateUser(user *models.User) error {
	return s.repo.Update(user)
}

func (s *userService) UpdatePassword(userID int, plainPassword string) error {
	if strings.TrimSpace(plainPassword) == "" {
		return fmt.Errorf("password is required")
	}
	user, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d not found", userID)
	}
	hash, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.repo.Update(user)
}

func (s *userService) DeleteUser(id int) error {
	return s.repo.Delete(id)
}

// ListUsers — identity подтягиваются пакетно и только по явному запросу,
// чтобы не платить за join на каждом чтении.
func (s *userService) ListUsers(limit, offset int, withIdentities bool) ([]*models.User, error) {
	users, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	if !withIdentities || len(users) == 0 {
		return users, nil
	}

	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	grouped, err := s.identities.GetByUserIDs(ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.Identities = grouped[u.ID]
	}
	return users, nil
}

func (s *userService) Activate(userID int) error {
	return s.repo.Activate(userID)
}

func (s *userService) Deactivate(userID int) error {
	return s.repo.Deactivate(userID)
}

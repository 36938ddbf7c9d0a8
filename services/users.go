package services

import (
	"context"
	"errors"
	"fmt"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenIssuer signs access tokens for an authenticated identity.
type TokenIssuer interface {
	Issue(id Identity) (string, error)
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      models.UserRole
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserService struct {
	db     *gorm.DB
	tokens TokenIssuer
	log    *zap.Logger
}

func NewUserService(db *gorm.DB, tokens TokenIssuer, log *zap.Logger) *UserService {
	return &UserService{db: db, tokens: tokens, log: log.With(zap.String("service", "users"))}
}

// Register creates a customer or supplier account and signs the caller in.
// Driver and admin roles are never self-assigned.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if in.Role != models.RoleCustomer && in.Role != models.RoleSupplier {
		return nil, apperror.BadRequest("Invalid role. Must be: customer or supplier")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("Failed to hash password", err)
	}
	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.signIn(user)
}

// Login checks the credentials and returns a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	if user.IsSuspended {
		return nil, apperror.Forbidden("Your account is suspended")
	}
	return s.signIn(&user)
}

func (s *UserService) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, apperror.Internal("Failed to generate token", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) Profile(ctx context.Context, id Identity) (*models.User, error) {
	return s.find(ctx, id.UserID)
}

// List returns users newest first, optionally restricted to one role.
func (s *UserService) List(ctx context.Context, role models.UserRole, page, limit int) (*Page[models.User], error) {
	page, limit = normalizePage(page, limit)
	filter := func(db *gorm.DB) *gorm.DB {
		if role != "" {
			db = db.Where("role = ?", role)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	users := []models.User{}
	err := s.db.WithContext(ctx).Scopes(filter).
		Order("created_at desc").Order("id desc").
		Offset(offset(page, limit)).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &Page[models.User]{Data: users, Meta: newMeta(page, limit, total)}, nil
}

// ToggleSuspension blocks or unblocks an account's logins.
func (s *UserService) ToggleSuspension(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, apperror.Forbidden("Admin accounts cannot be suspended")
	}
	user.IsSuspended = !user.IsSuspended
	if err := s.db.WithContext(ctx).Model(user).Update("is_suspended", user.IsSuspended).Error; err != nil {
		return nil, fmt.Errorf("toggle user suspension: %w", err)
	}
	return user, nil
}

func (s *UserService) find(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/models"
)

func toDomainUser(m *models.User) (*domain.User, error) {
	role, err := domain.ParseRole(m.Role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", m.ID, err)
	}
	perms, err := domain.ParsePermissionSet(m.Permissions)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", m.ID, err)
	}
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         role,
		Permissions:  perms,
		RefreshJTI:   m.RefreshJTI,
		CreatedAt:    m.CreatedAt,
	}, nil
}

func (r *GormRepo) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, dbErr("find user", err)
	}
	return toDomainUser(&user)
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, "email = ?", email)
}

func (r *GormRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findUser(ctx, "username = ?", username)
}

func (r *GormRepo) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

// CreateUser checks for a taken email or username before inserting; the
// unique indexes settle the race between two concurrent registrations.
func (r *GormRepo) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("email = ? OR username = ?", u.Email, u.Username).
		Count(&count).Error; err != nil {
		return nil, dbErr("create user", err)
	}
	if count > 0 {
		return nil, domain.ErrUserAlreadyExists
	}

	m := models.User{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Permissions:  u.Permissions.String(),
		RefreshJTI:   u.RefreshJTI,
	}
	if err := r.DB.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, dbErr("create user", err)
	}
	return toDomainUser(&m)
}

func (r *GormRepo) SetRefreshJTI(ctx context.Context, id uint, jti string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("refresh_jti", jti)
	if res.Error != nil {
		return dbErr("set refresh jti", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *GormRepo) UpdateAccess(ctx context.Context, id uint, role domain.Role, perms domain.PermissionSet) (*domain.User, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"role":        string(role),
		"permissions": perms.String(),
	})
	if res.Error != nil {
		return nil, dbErr("update access", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

package repo

import (
	"context"

	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/models"
)

func toDomainCategory(m *models.Category) domain.Category {
	return domain.Category{ID: m.ID, Name: m.Name, Description: m.Description}
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var items []models.Category
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, dbErr("list categories", err)
	}
	out := make([]domain.Category, len(items))
	for i := range items {
		out[i] = toDomainCategory(&items[i])
	}
	return out, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	m := models.Category{Name: c.Name, Description: c.Description}
	if err := r.DB.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrCategoryExists
		}
		return nil, dbErr("create category", err)
	}
	out := toDomainCategory(&m)
	return &out, nil
}

func (r *GormRepo) requireCategory(ctx context.Context, id uint) error {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return dbErr("check category", err)
	}
	if count == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

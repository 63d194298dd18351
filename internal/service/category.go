package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/task_manager/internal/cache"
	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/logging"
)

const (
	maxCategoryName        = 50
	maxCategoryDescription = 100
)

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
}

type CategoryService struct {
	Categories CategoryStore
	Cache      cache.Cache
}

func NewCategoryService(categories CategoryStore, c cache.Cache) *CategoryService {
	if c == nil {
		c = cache.Nop{}
	}
	return &CategoryService{Categories: categories, Cache: c}
}

var categoriesKey = cache.Key("categories")

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	l := logging.FromContext(ctx)

	var cached []domain.Category
	hit, err := s.Cache.GetJSON(ctx, categoriesKey, &cached)
	if err != nil {
		l.Warn("cache_get_failed", "key", categoriesKey, "error", err)
	}
	if hit {
		return cached, nil
	}

	items, err := s.Categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.SetJSON(ctx, categoriesKey, items); err != nil {
		l.Warn("cache_set_failed", "key", categoriesKey, "error", err)
	}
	return items, nil
}

func (s *CategoryService) Create(ctx context.Context, name string, description *string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return nil, fmt.Errorf("%w: name is longer than %d characters", domain.ErrValidation, maxCategoryName)
	}
	if err := validateDescription(description, maxCategoryDescription); err != nil {
		return nil, err
	}

	c, err := s.Categories.CreateCategory(ctx, &domain.Category{Name: name, Description: description})
	if err != nil {
		return nil, err
	}
	if err := s.Cache.InvalidatePatterns(ctx, categoriesKey); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "key", categoriesKey, "error", err)
	}
	return c, nil
}

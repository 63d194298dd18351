package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/models"
)

func toDomainTask(m *models.Task) domain.Task {
	return domain.Task{
		ID:            m.ID,
		Name:          m.Name,
		PomodoroCount: m.PomodoroCount,
		CategoryID:    m.CategoryID,
		Description:   m.Description,
		OwnerID:       m.OwnerID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toDomainTasks(items []models.Task) []domain.Task {
	out := make([]domain.Task, len(items))
	for i := range items {
		out[i] = toDomainTask(&items[i])
	}
	return out
}

func ownedBy(owner uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner == 0 {
			return db
		}
		return db.Where("owner_id = ?", owner)
	}
}

func (r *GormRepo) ListTasks(ctx context.Context, f domain.TaskFilter) (int64, []domain.Task, error) {
	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Task{}).Scopes(ownedBy(f.OwnerID))
		if f.CategoryID != 0 {
			q = q.Where("category_id = ?", f.CategoryID)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, dbErr("count tasks", err)
	}

	var items []models.Task
	if err := base().Order("id ASC").Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return 0, nil, dbErr("list tasks", err)
	}
	return total, toDomainTasks(items), nil
}

func (r *GormRepo) GetTask(ctx context.Context, id, owner uint) (*domain.Task, error) {
	var m models.Task
	if err := r.DB.WithContext(ctx).Scopes(ownedBy(owner)).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, dbErr("get task", err)
	}
	t := toDomainTask(&m)
	return &t, nil
}

// TasksByIDs keeps the order of ids and silently skips rows that are gone
// or belong to another owner.
func (r *GormRepo) TasksByIDs(ctx context.Context, ids []uint, owner uint) ([]domain.Task, error) {
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}
	var items []models.Task
	if err := r.DB.WithContext(ctx).Scopes(ownedBy(owner)).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, dbErr("tasks by ids", err)
	}
	byID := make(map[uint]*models.Task, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	out := make([]domain.Task, 0, len(items))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, toDomainTask(m))
		}
	}
	return out, nil
}

func (r *GormRepo) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if err := r.requireCategory(ctx, t.CategoryID); err != nil {
		return nil, err
	}
	m := models.Task{
		Name:          t.Name,
		PomodoroCount: t.PomodoroCount,
		CategoryID:    t.CategoryID,
		Description:   t.Description,
		OwnerID:       t.OwnerID,
	}
	if err := r.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, dbErr("create task", err)
	}
	out := toDomainTask(&m)
	return &out, nil
}

func (r *GormRepo) PatchTask(ctx context.Context, id, owner uint, p domain.TaskPatch) (*domain.Task, error) {
	var m models.Task
	if err := r.DB.WithContext(ctx).Scopes(ownedBy(owner)).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, dbErr("patch task", err)
	}

	if p.CategoryID != nil && *p.CategoryID != m.CategoryID {
		if err := r.requireCategory(ctx, *p.CategoryID); err != nil {
			return nil, err
		}
		m.CategoryID = *p.CategoryID
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.PomodoroCount != nil {
		m.PomodoroCount = *p.PomodoroCount
	}
	if p.Description != nil {
		m.Description = p.Description
	}

	if err := r.DB.WithContext(ctx).Save(&m).Error; err != nil {
		return nil, dbErr("patch task", err)
	}
	out := toDomainTask(&m)
	return &out, nil
}

// DeleteTask is a soft delete: the row stays with deleted_at set.
func (r *GormRepo) DeleteTask(ctx context.Context, id, owner uint) error {
	res := r.DB.WithContext(ctx).Scopes(ownedBy(owner)).Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return dbErr("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *GormRepo) RestoreTask(ctx context.Context, id uint) (*domain.Task, error) {
	res := r.DB.WithContext(ctx).Unscoped().Model(&models.Task{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return nil, dbErr("restore task", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return r.GetTask(ctx, id, 0)
}

func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}

func (r *GormRepo) SearchTasks(ctx context.Context, text string, f domain.TaskFilter) (int64, []domain.Task, error) {
	pattern := likePattern(text)
	base := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(&models.Task{}).
			Scopes(ownedBy(f.OwnerID)).
			Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, dbErr("search tasks", err)
	}

	var items []models.Task
	if err := base().Order("id ASC").Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return 0, nil, dbErr("search tasks", err)
	}
	return total, toDomainTasks(items), nil
}

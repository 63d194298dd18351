package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/task_manager/internal/cache"
	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/events"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/metrics"
	"github.com/Skotchmaster/task_manager/internal/util"
)

const (
	DefaultTaskName      = "Unnamed Task"
	maxTaskName          = 80
	maxTaskDescription   = 200
	defaultPomodoroCount = 1
)

type TaskStore interface {
	ListTasks(ctx context.Context, f domain.TaskFilter) (int64, []domain.Task, error)
	GetTask(ctx context.Context, id, owner uint) (*domain.Task, error)
	TasksByIDs(ctx context.Context, ids []uint, owner uint) ([]domain.Task, error)
	CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error)
	PatchTask(ctx context.Context, id, owner uint, p domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id, owner uint) error
	RestoreTask(ctx context.Context, id uint) (*domain.Task, error)
	SearchTasks(ctx context.Context, text string, f domain.TaskFilter) (int64, []domain.Task, error)
}

type TaskSearcher interface {
	Index(ctx context.Context, t domain.Task) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, owner uint, from, size int) (int64, []uint, error)
}

type TaskInput struct {
	Name          string
	PomodoroCount *int
	CategoryID    uint
	Description   *string
}

// TaskService applies ownership rules, caching, indexing and events around
// the task store. Search may be nil, then SQL matching is used.
type TaskService struct {
	Tasks   TaskStore
	Cache   cache.Cache
	Search  TaskSearcher
	Events  events.Publisher
	Metrics *metrics.Metrics
}

func NewTaskService(tasks TaskStore, c cache.Cache, search TaskSearcher, pub events.Publisher, m *metrics.Metrics) *TaskService {
	if c == nil {
		c = cache.Nop{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &TaskService{Tasks: tasks, Cache: c, Search: search, Events: pub, Metrics: m}
}

// scope is the owner filter for u: admins see every task.
func scope(u *domain.User) uint {
	if u.IsAdmin() {
		return 0
	}
	return u.ID
}

func scopeKey(owner uint) string {
	if owner == 0 {
		return "all"
	}
	return strconv.FormatUint(uint64(owner), 10)
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultTaskName, nil
	}
	if utf8.RuneCountInString(name) > maxTaskName {
		return "", fmt.Errorf("%w: name is longer than %d characters", domain.ErrValidation, maxTaskName)
	}
	return name, nil
}

func validateDescription(d *string, max int) error {
	if d != nil && utf8.RuneCountInString(*d) > max {
		return fmt.Errorf("%w: description is longer than %d characters", domain.ErrValidation, max)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context, u *domain.User, categoryID uint, page, size int) (*domain.TaskPage, error) {
	owner := scope(u)
	offset, limit := util.Calculate(page, size)
	key := cache.Key("tasks", scopeKey(owner), "list",
		strconv.FormatUint(uint64(categoryID), 10), strconv.Itoa(offset), strconv.Itoa(limit))

	var cached domain.TaskPage
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	total, items, err := s.Tasks.ListTasks(ctx, domain.TaskFilter{OwnerID: owner, CategoryID: categoryID, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	result := &domain.TaskPage{Items: items, Total: total}
	s.cacheSet(ctx, key, result)
	return result, nil
}

func (s *TaskService) Get(ctx context.Context, u *domain.User, id uint) (*domain.Task, error) {
	owner := scope(u)
	key := cache.Key("tasks", scopeKey(owner), "item", strconv.FormatUint(uint64(id), 10))

	var cached domain.Task
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	t, err := s.Tasks.GetTask(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, t)
	return t, nil
}

func (s *TaskService) SearchTasks(ctx context.Context, u *domain.User, query string, page, size int) (*domain.TaskPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &domain.TaskPage{Items: []domain.Task{}}, nil
	}
	owner := scope(u)
	offset, limit := util.Calculate(page, size)

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, query, owner, offset, limit)
		if err == nil {
			items, err := s.Tasks.TasksByIDs(ctx, ids, owner)
			if err != nil {
				return nil, err
			}
			return &domain.TaskPage{Items: items, Total: total}, nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "reason", "index unavailable", "error", err)
	}

	total, items, err := s.Tasks.SearchTasks(ctx, query, domain.TaskFilter{OwnerID: owner, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &domain.TaskPage{Items: items, Total: total}, nil
}

func (s *TaskService) Create(ctx context.Context, u *domain.User, in TaskInput) (*domain.Task, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	count := defaultPomodoroCount
	if in.PomodoroCount != nil {
		count = *in.PomodoroCount
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: pomodoro_count must be positive", domain.ErrValidation)
	}
	if in.CategoryID == 0 {
		return nil, fmt.Errorf("%w: category_id is required", domain.ErrValidation)
	}
	if err := validateDescription(in.Description, maxTaskDescription); err != nil {
		return nil, err
	}

	t, err := s.Tasks.CreateTask(ctx, &domain.Task{
		Name:          name,
		PomodoroCount: count,
		CategoryID:    in.CategoryID,
		Description:   in.Description,
		OwnerID:       u.ID,
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, events.TaskCreated, t)
	return t, nil
}

func (s *TaskService) Patch(ctx context.Context, u *domain.User, id uint, p domain.TaskPatch) (*domain.Task, error) {
	if p.Empty() {
		return nil, fmt.Errorf("%w: at least one field must be provided", domain.ErrValidation)
	}
	if p.Name != nil {
		name, err := normalizeName(*p.Name)
		if err != nil {
			return nil, err
		}
		p.Name = &name
	}
	if p.PomodoroCount != nil && *p.PomodoroCount <= 0 {
		return nil, fmt.Errorf("%w: pomodoro_count must be positive", domain.ErrValidation)
	}
	if p.CategoryID != nil && *p.CategoryID == 0 {
		return nil, fmt.Errorf("%w: category_id must be positive", domain.ErrValidation)
	}
	if err := validateDescription(p.Description, maxTaskDescription); err != nil {
		return nil, err
	}

	t, err := s.Tasks.PatchTask(ctx, id, scope(u), p)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, events.TaskUpdated, t)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, u *domain.User, id uint) error {
	owner := scope(u)
	t, err := s.Tasks.GetTask(ctx, id, owner)
	if err != nil {
		return err
	}
	if err := s.Tasks.DeleteTask(ctx, id, owner); err != nil {
		return err
	}

	s.afterWrite(ctx, events.TaskDeleted, t)
	return nil
}

func (s *TaskService) Restore(ctx context.Context, u *domain.User, id uint) (*domain.Task, error) {
	if !u.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	t, err := s.Tasks.RestoreTask(ctx, id)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, events.TaskRestored, t)
	return t, nil
}

// afterWrite runs the best-effort side effects of a task mutation. None of
// them can fail the request.
func (s *TaskService) afterWrite(ctx context.Context, kind string, t *domain.Task) {
	l := logging.FromContext(ctx)

	if err := s.Cache.InvalidatePatterns(ctx,
		cache.Key("tasks", scopeKey(t.OwnerID), "*"),
		cache.Key("tasks", "all", "*"),
	); err != nil {
		l.Warn("cache_invalidate_failed", "task_id", t.ID, "error", err)
	}

	if s.Search != nil {
		var err error
		if kind == events.TaskDeleted {
			err = s.Search.Delete(ctx, t.ID)
		} else {
			err = s.Search.Index(ctx, *t)
		}
		if err != nil {
			l.Warn("search_index_failed", "task_id", t.ID, "error", err)
		}
	}

	event := events.TaskEvent{Type: kind, TaskID: t.ID, OwnerID: t.OwnerID, Name: t.Name, At: time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, events.TopicTasks, strconv.FormatUint(uint64(t.ID), 10), event); err != nil {
		l.Warn("event_publish_failed", "type", kind, "task_id", t.ID, "error", err)
	}
}

func (s *TaskService) cacheGet(ctx context.Context, key string, dst any) bool {
	hit, err := s.Cache.GetJSON(ctx, key, dst)
	if err != nil {
		logging.FromContext(ctx).Warn("cache_get_failed", "key", key, "error", err)
		return false
	}
	s.Metrics.CacheLookup(hit)
	return hit
}

func (s *TaskService) cacheSet(ctx context.Context, key string, v any) {
	if err := s.Cache.SetJSON(ctx, key, v); err != nil {
		logging.FromContext(ctx).Warn("cache_set_failed", "key", key, "error", err)
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/task_manager/internal/cache"
	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/events"
	"github.com/Skotchmaster/task_manager/internal/metrics"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/testutil"
)

type fakeSearcher struct {
	indexed []uint
	deleted []uint
	ids     []uint
	err     error
}

func (f *fakeSearcher) Index(_ context.Context, t domain.Task) error {
	f.indexed = append(f.indexed, t.ID)
	return nil
}

func (f *fakeSearcher) Delete(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSearcher) Search(context.Context, string, uint, int, int) (int64, []uint, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.ids)), f.ids, nil
}

type taskEnv struct {
	svc      *TaskService
	repo     *repo.GormRepo
	redis    *miniredis.Miniredis
	search   *fakeSearcher
	pub      *recordingPublisher
	category models.Category
}

var (
	alice = &domain.User{ID: 1, Username: "alice", Role: domain.RoleUser, Permissions: domain.FullPermissionSet()}
	bob   = &domain.User{ID: 2, Username: "bob", Role: domain.RoleUser, Permissions: domain.FullPermissionSet()}
	admin = &domain.User{ID: 3, Username: "admin", Role: domain.RoleAdmin, Permissions: domain.FullPermissionSet()}
)

func newTaskEnv(t *testing.T) *taskEnv {
	t.Helper()

	gdb := testutil.NewSQLite(t)
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	r := repo.New(gdb)
	s := &fakeSearcher{}
	pub := &recordingPublisher{}
	return &taskEnv{
		svc:      NewTaskService(r, c, s, pub, metrics.New()),
		repo:     r,
		redis:    mr,
		search:   s,
		pub:      pub,
		category: testutil.SeedCategory(t, gdb, "work"),
	}
}

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }
func uintPtr(v uint) *uint { return &v }

func TestTaskService_CreateDefaultsAndValidation(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	task, err := env.svc.Create(ctx, alice, TaskInput{Name: "   ", CategoryID: env.category.ID})
	require.NoError(t, err)
	assert.Equal(t, DefaultTaskName, task.Name)
	assert.Equal(t, 1, task.PomodoroCount)
	assert.Equal(t, alice.ID, task.OwnerID)

	task, err = env.svc.Create(ctx, alice, TaskInput{Name: "  focus  ", PomodoroCount: intPtr(4), CategoryID: env.category.ID})
	require.NoError(t, err)
	assert.Equal(t, "focus", task.Name)
	assert.Equal(t, 4, task.PomodoroCount)

	cases := []TaskInput{
		{Name: strings.Repeat("x", 81), CategoryID: env.category.ID},
		{Name: "a", PomodoroCount: intPtr(0), CategoryID: env.category.ID},
		{Name: "a"},
		{Name: "a", CategoryID: env.category.ID, Description: strPtr(strings.Repeat("d", 201))},
	}
	for _, in := range cases {
		_, err := env.svc.Create(ctx, alice, in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}

	_, err = env.svc.Create(ctx, alice, TaskInput{Name: "a", CategoryID: env.category.ID + 10})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	assert.Len(t, env.search.indexed, 2)
	evs := env.pub.all()
	require.Len(t, evs, 2)
	assert.Equal(t, events.TopicTasks, evs[0].Topic)
	assert.Equal(t, events.TaskCreated, evs[0].Event.(events.TaskEvent).Type)
}

func TestTaskService_OwnershipScope(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	mine, err := env.svc.Create(ctx, alice, TaskInput{Name: "mine", CategoryID: env.category.ID})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, bob, TaskInput{Name: "his", CategoryID: env.category.ID})
	require.NoError(t, err)

	page, err := env.svc.List(ctx, alice, 0, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = env.svc.List(ctx, admin, 0, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	_, err = env.svc.Get(ctx, bob, mine.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = env.svc.Patch(ctx, bob, mine.ID, domain.TaskPatch{Name: strPtr("stolen")})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, env.svc.Delete(ctx, bob, mine.ID), domain.ErrTaskNotFound)

	got, err := env.svc.Get(ctx, admin, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Name)
}

func TestTaskService_CacheInvalidatedOnWrite(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, alice, TaskInput{Name: "one", CategoryID: env.category.ID})
	require.NoError(t, err)

	page, err := env.svc.List(ctx, alice, 0, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.NotEmpty(t, env.redis.Keys())

	// a write that bypasses the service is invisible while cached
	require.NoError(t, env.repo.DB.Create(&models.Task{Name: "direct", PomodoroCount: 1, CategoryID: env.category.ID, OwnerID: alice.ID}).Error)
	page, err = env.svc.List(ctx, alice, 0, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	_, err = env.svc.Create(ctx, alice, TaskInput{Name: "two", CategoryID: env.category.ID})
	require.NoError(t, err)
	page, err = env.svc.List(ctx, alice, 0, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
}

func TestTaskService_CacheFailureFallsThrough(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, alice, TaskInput{Name: "one", CategoryID: env.category.ID})
	require.NoError(t, err)

	env.redis.Close()
	page, err := env.svc.List(ctx, alice, 0, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestTaskService_Patch(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	task, err := env.svc.Create(ctx, alice, TaskInput{Name: "draft", CategoryID: env.category.ID})
	require.NoError(t, err)

	_, err = env.svc.Patch(ctx, alice, task.ID, domain.TaskPatch{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = env.svc.Patch(ctx, alice, task.ID, domain.TaskPatch{PomodoroCount: intPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = env.svc.Patch(ctx, alice, task.ID, domain.TaskPatch{CategoryID: uintPtr(999)})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	updated, err := env.svc.Patch(ctx, alice, task.ID, domain.TaskPatch{Name: strPtr(" final "), Description: strPtr("done")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "done", *updated.Description)

	got, err := env.svc.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Name)
}

func TestTaskService_DeleteAndRestore(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	task, err := env.svc.Create(ctx, alice, TaskInput{Name: "temp", CategoryID: env.category.ID})
	require.NoError(t, err)
	_, err = env.svc.Get(ctx, alice, task.ID)
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, alice, task.ID))
	assert.Equal(t, []uint{task.ID}, env.search.deleted)

	_, err = env.svc.Get(ctx, alice, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = env.svc.Restore(ctx, alice, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	restored, err := env.svc.Restore(ctx, admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, restored.ID)

	_, err = env.svc.Get(ctx, alice, task.ID)
	require.NoError(t, err)

	var kinds []string
	for _, e := range env.pub.all() {
		kinds = append(kinds, e.Event.(events.TaskEvent).Type)
	}
	assert.Equal(t, []string{events.TaskCreated, events.TaskDeleted, events.TaskRestored}, kinds)
}

func TestTaskService_Search(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	a, err := env.svc.Create(ctx, alice, TaskInput{Name: "read book", CategoryID: env.category.ID})
	require.NoError(t, err)
	b, err := env.svc.Create(ctx, alice, TaskInput{Name: "write book", CategoryID: env.category.ID})
	require.NoError(t, err)

	env.search.ids = []uint{b.ID, a.ID}
	page, err := env.svc.SearchTasks(ctx, alice, "book", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, b.ID, page.Items[0].ID)

	env.search.err = errors.New("index down")
	page, err = env.svc.SearchTasks(ctx, alice, "write", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, b.ID, page.Items[0].ID)

	env.svc.Search = nil
	page, err = env.svc.SearchTasks(ctx, bob, "book", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = env.svc.SearchTasks(ctx, alice, "  ", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestCategoryService(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	svc := NewCategoryService(repo.New(gdb), c)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := svc.Create(ctx, " study ", nil)
	require.NoError(t, err)
	assert.Equal(t, "study", created.Name)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Create(ctx, "study", nil)
	assert.ErrorIs(t, err, domain.ErrCategoryExists)
	_, err = svc.Create(ctx, "", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Create(ctx, strings.Repeat("c", 51), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Create(ctx, "ok", strPtr(strings.Repeat("d", 101)))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

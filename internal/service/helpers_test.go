package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/task_manager/internal/hash"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/testutil"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

type published struct {
	Topic string
	Key   string
	Event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type authEnv struct {
	svc   *AuthService
	repo  *repo.GormRepo
	clock *testClock
	pub   *recordingPublisher
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	clock := &testClock{now: time.Now()}
	codec, err := tokens.NewCodec([]byte("test-secret"), "HS256", tokens.WithClock(clock.Now))
	require.NoError(t, err)

	r := repo.New(testutil.NewSQLite(t))
	pub := &recordingPublisher{}
	svc := NewAuthService(r, codec, hash.New(bcrypt.MinCost), 15*time.Minute, 7*24*time.Hour, pub)
	return &authEnv{svc: svc, repo: r, clock: clock, pub: pub}
}

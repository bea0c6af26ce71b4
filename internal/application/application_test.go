package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/codex/internal/domain/entity"
	"github.com/oksasatya/codex/internal/domain/lifecycle"
	repo "github.com/oksasatya/codex/internal/domain/repository"
	"github.com/oksasatya/codex/internal/infrastructure/memory"
	"github.com/oksasatya/codex/pkg/helpers"
	"github.com/oksasatya/codex/pkg/mailer"
	mailtpl "github.com/oksasatya/codex/pkg/mailer/templates"
)

func init() {
	helpers.PasswordCost = bcrypt.MinCost
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type capturePub struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (p *capturePub) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func (p *capturePub) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.jobs))
	for _, j := range p.jobs {
		out = append(out, j.Data["Type"].(string))
	}
	return out
}

type fixture struct {
	svc     *UserService
	prompts *PromptService
	users   *memory.UserRepository
	store   *memory.PromptRepository
	mr      *miniredis.Miniredis
	clock   *clock
	pub     *capturePub
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := memory.NewUserRepository()
	store := memory.NewPromptRepository()
	jwt := helpers.NewJWTManager("access", "refresh", time.Hour, 24*time.Hour)
	logger := helpers.NewDiscardLogger()

	clk := &clock{t: t0}
	pub := &capturePub{}
	svc := NewUserService(users, store, jwt, rdb, logger)
	svc.Now = clk.Now
	svc.Notifier = &Notifier{Pub: pub, Retention: lifecycle.DefaultRetention, Logger: logger}

	return &fixture{
		svc:     svc,
		prompts: NewPromptService(store, nil, logger),
		users:   users,
		store:   store,
		mr:      mr,
		clock:   clk,
		pub:     pub,
	}
}

func (f *fixture) register(t *testing.T, username string) *entity.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    username + "@example.com",
		Username: username,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return u
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ada")

	_, err := f.svc.Register(ctx, RegisterInput{Email: "ADA@example.com", Username: "other", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = f.svc.Register(ctx, RegisterInput{Email: "x@example.com", Username: "ADA", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = f.svc.Register(ctx, RegisterInput{Email: "y@example.com", Username: "no spaces", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Register(ctx, RegisterInput{Email: "z@example.com", Username: "zed", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin_ByEmailOrUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")

	got, pair, err := f.svc.Login(ctx, "Ada@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)

	_, _, err = f.svc.Login(ctx, "ada", "correct-horse")
	require.NoError(t, err)

	claims, err := f.svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	// the second login replaced the session id
	assert.NotEqual(t, claims.SessionID, f.mr.HGet(helpers.SessionKey(u.ID), "sid"))
}

func TestMarkForDeletion_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")
	_, _, err := f.svc.Login(ctx, "ada", "correct-horse")
	require.NoError(t, err)
	require.True(t, f.mr.Exists(helpers.SessionKey(u.ID)))

	first, err := f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, first.DeletedAt)
	assert.True(t, first.DeletedAt.Equal(t0))
	assert.Equal(t, lifecycle.AnonymizedDisplayName, first.DisplayName)
	assert.Empty(t, first.AvatarURL)
	assert.False(t, f.mr.Exists(helpers.SessionKey(u.ID)))

	f.clock.Set(t0.Add(2 * time.Hour))
	second, err := f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, second.DeletedAt.Equal(t0))

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.MarkedForDeletion)
	assert.True(t, stored.DeletedAt.Equal(t0))
	assert.Equal(t, u.Email, stored.Email)

	// only the first call schedules a notification
	assert.Equal(t, []string{mailtpl.DeletionScheduled}, f.pub.types())

	_, err = f.svc.MarkForDeletion(ctx, "missing", RequestMeta{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRestoreAccount_Window(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inside := f.register(t, "inside")
	boundary := f.register(t, "boundary")

	_, err := f.svc.MarkForDeletion(ctx, inside.ID, RequestMeta{})
	require.NoError(t, err)
	marked, err := f.svc.MarkForDeletion(ctx, boundary.ID, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateMarkedForDeletion, f.svc.State(marked))

	f.clock.Set(t0.Add(lifecycle.DefaultRetention - time.Second))
	restored, err := f.svc.RestoreAccount(ctx, inside.ID, RequestMeta{})
	require.NoError(t, err)
	assert.False(t, restored.MarkedForDeletion)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, "inside", restored.DisplayName)

	f.clock.Set(t0.Add(lifecycle.DefaultRetention))
	assert.Equal(t, lifecycle.StatePurgeEligible, f.svc.State(marked))
	_, err = f.svc.RestoreAccount(ctx, boundary.ID, RequestMeta{})
	assert.ErrorIs(t, err, ErrNotEligible)

	// active account comes back unchanged
	again, err := f.svc.RestoreAccount(ctx, inside.ID, RequestMeta{})
	require.NoError(t, err)
	assert.False(t, again.MarkedForDeletion)

	_, err = f.svc.RestoreAccount(ctx, "missing", RequestMeta{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSweep_SecondRunCountsZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "alpha")
	b := f.register(t, "bravo")
	keep := f.register(t, "keeper")

	_, err := f.prompts.Create(ctx, a.ID, PromptInput{Title: "t", Prompt: "p"})
	require.NoError(t, err)
	_, err = f.prompts.Create(ctx, keep.ID, PromptInput{Title: "t", Prompt: "p"})
	require.NoError(t, err)

	for _, id := range []string{a.ID, b.ID} {
		_, err := f.svc.MarkForDeletion(ctx, id, RequestMeta{})
		require.NoError(t, err)
	}
	f.clock.Set(t0.Add(6 * 24 * time.Hour))
	_, err = f.svc.MarkForDeletion(ctx, keep.ID, RequestMeta{})
	require.NoError(t, err)

	sweepAt := t0.Add(8 * 24 * time.Hour)
	n, err := f.svc.SweepExpiredDeletions(ctx, sweepAt)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.SweepExpiredDeletions(ctx, sweepAt)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, total, err := f.store.ListByUser(ctx, a.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = f.store.ListByUser(ctx, keep.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, err = f.users.GetByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.Contains(t, f.pub.types(), mailtpl.AccountPurged)
}

func TestSweep_NothingToDo(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada")

	n, err := f.svc.SweepExpiredDeletions(context.Background(), t0.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

// staleUsers replays a scan taken before a restore happened.
type staleUsers struct {
	*memory.UserRepository
	snapshot []*entity.User
}

func (s *staleUsers) ListMarkedForDeletion(context.Context, time.Time) ([]*entity.User, error) {
	return s.snapshot, nil
}

func TestSweep_SkipsAccountRestoredAfterScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")
	_, err := f.prompts.Create(ctx, u.ID, PromptInput{Title: "t", Prompt: "p"})
	require.NoError(t, err)
	_, err = f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{})
	require.NoError(t, err)

	sweepAt := t0.Add(8 * 24 * time.Hour)
	snap, err := f.users.ListMarkedForDeletion(ctx, lifecycle.PurgeCutoff(sweepAt, lifecycle.DefaultRetention))
	require.NoError(t, err)
	require.Len(t, snap, 1)

	// restored (e.g. by an operator) between scan and delete
	_, restored, err := f.users.Restore(ctx, u.ID, t0.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, restored)

	f.svc.Users = &staleUsers{UserRepository: f.users, snapshot: snap}
	n, err := f.svc.SweepExpiredDeletions(ctx, sweepAt)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	_, total, err := f.store.ListByUser(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

type failingUsers struct {
	*memory.UserRepository
}

var errStorage = errors.New("storage down")

func (failingUsers) ListMarkedForDeletion(context.Context, time.Time) ([]*entity.User, error) {
	return nil, errStorage
}

func TestSweep_StorageErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.svc.Users = failingUsers{UserRepository: f.users}

	_, err := f.svc.SweepExpiredDeletions(context.Background(), t0)
	assert.ErrorIs(t, err, errStorage)
}

func TestLogin_MarkedAccountLooksLikeWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	marked := f.register(t, "marked")
	f.register(t, "active")
	_, err := f.svc.MarkForDeletion(ctx, marked.ID, RequestMeta{})
	require.NoError(t, err)

	_, _, errMarked := f.svc.Login(ctx, "marked", "correct-horse")
	_, _, errWrong := f.svc.Login(ctx, "active", "wrong-password")
	_, _, errUnknown := f.svc.Login(ctx, "nobody", "correct-horse")

	assert.ErrorIs(t, errMarked, ErrInvalidCredentials)
	assert.Equal(t, errWrong, errMarked)
	assert.Equal(t, errUnknown, errMarked)
}

func TestRegisterDeleteLoginRestoreLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")

	_, err := f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{IP: "203.0.113.5"})
	require.NoError(t, err)

	_, _, err = f.svc.Login(ctx, "ada", "correct-horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	f.clock.Set(t0.Add(3 * 24 * time.Hour))
	_, _, err = f.svc.RestoreWithCredentials(ctx, "ada", "wrong-password", RequestMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	restored, pair, err := f.svc.RestoreWithCredentials(ctx, "ada@example.com", "correct-horse", RequestMeta{})
	require.NoError(t, err)
	assert.False(t, restored.MarkedForDeletion)
	assert.NotEmpty(t, pair.AccessToken)

	_, _, err = f.svc.Login(ctx, "ada", "correct-horse")
	require.NoError(t, err)

	assert.Equal(t, []string{mailtpl.DeletionScheduled, mailtpl.AccountRestored}, f.pub.types())
}

func TestDeleteSweepThenRestoreIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")

	_, err := f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{})
	require.NoError(t, err)

	at := t0.Add(8 * 24 * time.Hour)
	f.clock.Set(at)
	n, err := f.svc.SweepExpiredDeletions(ctx, at)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = f.svc.RestoreAccount(ctx, u.ID, RequestMeta{})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = f.svc.RestoreWithCredentials(ctx, "ada", "correct-horse", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_RotatesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ada")

	_, first, err := f.svc.Login(ctx, "ada", "correct-horse")
	require.NoError(t, err)

	_, second, err := f.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, _, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNotifier_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	u := f.register(t, "ada")

	_, err := f.svc.MarkForDeletion(context.Background(), u.ID, RequestMeta{})
	assert.NoError(t, err)
}

type memExports struct {
	uploads map[string][]byte
	deleted []string
}

func (m *memExports) Upload(_ context.Context, userID string, _ time.Time, body []byte) (string, error) {
	if m.uploads == nil {
		m.uploads = map[string][]byte{}
	}
	m.uploads[userID] = body
	return "https://storage.example/" + userID + ".json", nil
}

func (m *memExports) DeleteUser(_ context.Context, userID string) error {
	m.deleted = append(m.deleted, userID)
	return nil
}

func TestExportPrompts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")
	for i := 0; i < 3; i++ {
		_, err := f.prompts.Create(ctx, u.ID, PromptInput{Title: "t", Prompt: "p"})
		require.NoError(t, err)
	}

	inline, err := f.svc.ExportPrompts(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, inline.Count)
	assert.Len(t, inline.Prompts, 3)
	assert.Empty(t, inline.URL)

	store := &memExports{}
	f.svc.Exports = store
	uploaded, err := f.svc.ExportPrompts(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example/"+u.ID+".json", uploaded.URL)
	assert.Nil(t, uploaded.Prompts)
	assert.Contains(t, string(store.uploads[u.ID]), `"count":3`)

	_, err = f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{})
	require.NoError(t, err)
	_, err = f.svc.ExportPrompts(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.SweepExpiredDeletions(ctx, t0.Add(8*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, store.deleted)
}

type failingPrompts struct {
	*memory.PromptRepository
}

func (failingPrompts) DeleteByUser(context.Context, string) (int, error) {
	return 0, errStorage
}

func TestSweep_PromptFailureKeepsAccountForNextRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")
	_, err := f.prompts.Create(ctx, u.ID, PromptInput{Title: "t", Prompt: "p"})
	require.NoError(t, err)
	_, err = f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{})
	require.NoError(t, err)

	sweepAt := t0.Add(8 * 24 * time.Hour)
	f.svc.Prompts = failingPrompts{PromptRepository: f.store}
	n, err := f.svc.SweepExpiredDeletions(ctx, sweepAt)
	assert.ErrorIs(t, err, errStorage)
	assert.Zero(t, n)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.MarkedForDeletion)
	assert.NotContains(t, f.pub.types(), mailtpl.AccountPurged)

	f.svc.Prompts = f.store
	n, err = f.svc.SweepExpiredDeletions(ctx, sweepAt)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, total, err := f.store.ListByUser(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

// barrierUsers holds every GetByID until parties callers have read, so
// each of them acts on the same snapshot.
type barrierUsers struct {
	repo.UserRepository
	parties int

	mu      sync.Mutex
	n       int
	release chan struct{}
}

func newBarrierUsers(inner repo.UserRepository, parties int) *barrierUsers {
	return &barrierUsers{UserRepository: inner, parties: parties, release: make(chan struct{})}
}

func (b *barrierUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := b.UserRepository.GetByID(ctx, id)
	b.mu.Lock()
	b.n++
	if b.n == b.parties {
		close(b.release)
	}
	b.mu.Unlock()
	select {
	case <-b.release:
	case <-time.After(5 * time.Second):
	}
	return u, err
}

func TestMarkForDeletion_ConcurrentProfileUpdateCannotUnmark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")
	f.svc.Users = newBarrierUsers(f.users, 2)

	var (
		wg         sync.WaitGroup
		markErr    error
		profileErr error
	)
	name := "Ada Lovelace"
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, markErr = f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{})
	}()
	go func() {
		defer wg.Done()
		_, profileErr = f.svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{DisplayName: &name})
	}()
	wg.Wait()

	require.NoError(t, markErr)
	if profileErr != nil {
		assert.ErrorIs(t, profileErr, ErrUserNotFound)
	}

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.MarkedForDeletion)
	require.NotNil(t, stored.DeletedAt)
	assert.Equal(t, lifecycle.AnonymizedDisplayName, stored.DisplayName)

	f.svc.Users = f.users
	_, err = f.svc.Authenticate(ctx, "ada", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMarkForDeletion_ConcurrentCallsKeepFirstMark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ada")
	f.svc.Users = newBarrierUsers(f.users, 2)

	var tick sync.Mutex
	at := t0
	f.svc.Now = func() time.Time {
		tick.Lock()
		defer tick.Unlock()
		at = at.Add(time.Minute)
		return at
	}

	results := make([]*entity.User, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.MarkForDeletion(ctx, u.ID, RequestMeta{})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i].DeletedAt)
	}
	assert.True(t, results[0].DeletedAt.Equal(*results[1].DeletedAt))

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.DeletedAt.Equal(*results[0].DeletedAt))
	assert.Equal(t, []string{mailtpl.DeletionScheduled}, f.pub.types())
}

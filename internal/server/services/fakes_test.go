package services

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/cryptox"
	"github.com/luminary-catalog/luminary/internal/dbx"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/luminary-catalog/luminary/internal/server/auth"
	"github.com/luminary-catalog/luminary/internal/server/config"
	"github.com/luminary-catalog/luminary/internal/server/models"
	accountsrepo "github.com/luminary-catalog/luminary/internal/server/repositories/accounts"
	genresrepo "github.com/luminary-catalog/luminary/internal/server/repositories/genres"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoreTimeout = time.Second
	return cfg
}

func cheapHasher() *cryptox.Argon2Hasher {
	return cryptox.NewArgon2Hasher(cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

// fakeAccountsRepo is an in-memory accounts.Repository. Per-method errors
// override the store.
type fakeAccountsRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.Account
	nextID int

	createErr   error
	getErr      error
	updateErr   error
	lookups     []string
	lookupDelay time.Duration
}

func newFakeAccountsRepo(seed ...*models.Account) *fakeAccountsRepo {
	r := &fakeAccountsRepo{byID: map[string]*models.Account{}}
	for _, a := range seed {
		cp := *a
		r.byID[a.ID] = &cp
	}
	return r
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	a.ID = "acc-" + strconv.Itoa(f.nextID)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	f.byID[a.ID] = &cp
	return a, nil
}

func (f *fakeAccountsRepo) find(ctx context.Context, kind string, match func(*models.Account) bool) (*models.Account, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, kind)
	delay := f.lookupDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	ids := make([]string, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if a := f.byID[id]; match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return f.find(ctx, "id", func(a *models.Account) bool { return a.ID == id })
}

func (f *fakeAccountsRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return f.find(ctx, "email", func(a *models.Account) bool { return a.Email == email })
}

func (f *fakeAccountsRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return f.find(ctx, "username", func(a *models.Account) bool { return a.Username == username })
}

func (f *fakeAccountsRepo) Update(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if _, ok := f.byID[a.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	f.byID[a.ID] = &cp
	return a, nil
}

type fakeGenresRepo struct {
	items     map[string]*models.Genre
	nextID    int
	listErr   error
	createErr error
	deleteErr error
}

func newFakeGenresRepo() *fakeGenresRepo {
	return &fakeGenresRepo{items: map[string]*models.Genre{}}
}

func (f *fakeGenresRepo) List(ctx context.Context) ([]models.Genre, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Genre, 0, len(f.items))
	for _, g := range f.items {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeGenresRepo) GetByID(ctx context.Context, id string) (*models.Genre, error) {
	g, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGenresRepo) Create(ctx context.Context, g *models.Genre) (*models.Genre, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.items {
		if existing.Name == g.Name {
			return nil, common.NewConflict("name")
		}
	}
	f.nextID++
	g.ID = "g-" + strconv.Itoa(f.nextID)
	cp := *g
	f.items[g.ID] = &cp
	return g, nil
}

func (f *fakeGenresRepo) Update(ctx context.Context, g *models.Genre) (*models.Genre, error) {
	if _, ok := f.items[g.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *g
	f.items[g.ID] = &cp
	return g, nil
}

func (f *fakeGenresRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
	g *fakeGenresRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error      { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.a }
func (m *fakeRepoManager) Genres(db dbx.DBTX) genresrepo.Repository     { return m.g }

// countingIssuer wraps a TokenService and records calls.
type countingIssuer struct {
	inner *auth.TokenService
	calls int
	err   error
}

func (c *countingIssuer) Issue(id, email string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.inner.Issue(id, email)
}

// failingHasher returns errors from both operations.
type failingHasher struct{ err error }

func (f failingHasher) Hash(string) (string, error)          { return "", f.err }
func (f failingHasher) Verify(string, string) (bool, error) { return false, f.err }

func newAccountService(t *testing.T, db *sql.DB, repo *fakeAccountsRepo, cfg *config.Config) (*AccountService, *auth.TokenService) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	tokens := auth.NewTokenService([]byte("k"), time.Hour)
	s := NewAccountService(db, &fakeRepoManager{a: repo, g: newFakeGenresRepo()}, cfg, cheapHasher(), tokens, logging.Nop{})
	return s, tokens
}

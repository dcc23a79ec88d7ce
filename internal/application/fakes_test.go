package application

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/petlovers/petlovers-api/internal/domain/entity"
	repo "github.com/petlovers/petlovers-api/internal/domain/repository"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

// memUsers mirrors the Postgres adapter: version-guarded updates and a
// unique email index.
type memUsers struct {
	mu      sync.Mutex
	rows    map[string]entity.User
	failErr error
	updates int
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[string]entity.User{}}
}

func cloneUser(u entity.User) entity.User {
	u.Roles = slices.Clone(u.Roles)
	return u
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	u, ok := m.rows[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := cloneUser(u)
	return &c, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	for _, u := range m.rows {
		if u.Email == email {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	for _, u := range m.rows {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Insert(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	for _, existing := range m.rows {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	u.Version = 1
	m.rows[u.ID] = cloneUser(*u)
	return nil
}

func (m *memUsers) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	cur, ok := m.rows[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if cur.Version != u.Version {
		return repo.ErrStaleWrite
	}
	u.Version++
	m.rows[u.ID] = cloneUser(*u)
	m.updates++
	return nil
}

func (m *memUsers) get(id string) entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneUser(m.rows[id])
}

// countingHasher records how often a KDF verification runs.
type countingHasher struct {
	*helpers.PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (c *countingHasher) Verify(password, stored string) bool {
	c.mu.Lock()
	c.verifies++
	c.mu.Unlock()
	return c.PasswordHasher.Verify(password, stored)
}

func (c *countingHasher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifies
}

type memPets struct {
	mu      sync.Mutex
	rows    map[string]entity.Pet
	failErr error
	// beforeUpdate runs inside Update before the version check.
	beforeUpdate func()
	// afterGet runs once GetByID has read the row.
	afterGet func()
}

func newMemPets() *memPets {
	return &memPets{rows: map[string]entity.Pet{}}
}

func (m *memPets) GetByID(_ context.Context, id string) (*entity.Pet, error) {
	m.mu.Lock()
	if m.failErr != nil {
		m.mu.Unlock()
		return nil, m.failErr
	}
	p, ok := m.rows[id]
	m.mu.Unlock()
	if !ok {
		return nil, repo.ErrNotFound
	}
	if hook := m.afterGet; hook != nil {
		m.afterGet = nil
		hook()
	}
	return &p, nil
}

func (m *memPets) list(match func(entity.Pet) bool) ([]entity.Pet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	out := []entity.Pet{}
	for _, p := range m.rows {
		if match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPets) ListByStatus(_ context.Context, status entity.PetStatus) ([]entity.Pet, error) {
	return m.list(func(p entity.Pet) bool { return p.Status == status })
}

func (m *memPets) ListBySpecies(_ context.Context, species entity.Species) ([]entity.Pet, error) {
	return m.list(func(p entity.Pet) bool { return p.Species == species })
}

func (m *memPets) Insert(_ context.Context, p *entity.Pet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.rows[p.ID]; ok {
		return repo.ErrDuplicate
	}
	p.Version = 1
	m.rows[p.ID] = *p
	return nil
}

func (m *memPets) Update(_ context.Context, p *entity.Pet) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	cur, ok := m.rows[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if cur.Version != p.Version {
		return repo.ErrStaleWrite
	}
	p.Version++
	m.rows[p.ID] = *p
	return nil
}

func (m *memPets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memPets) bump(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.rows[id]
	p.Version++
	m.rows[id] = p
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []AdoptionEvent
	err    error
}

func (r *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if evt, ok := body.(AdoptionEvent); ok {
		r.events = append(r.events, evt)
	}
	return r.err
}

// memCache follows the Redis cache contract: Put is refused once a newer
// version has been invalidated.
type memCache struct {
	mu    sync.Mutex
	views map[string]PetView
	marks map[string]int64
	puts  int
}

func newMemCache() *memCache {
	return &memCache{views: map[string]PetView{}, marks: map[string]int64{}}
}

func (m *memCache) Get(_ context.Context, id string) (PetView, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[id]
	return v, ok, nil
}

func (m *memCache) Put(_ context.Context, v PetView, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if mark, ok := m.marks[v.ID]; ok && mark > version {
		return nil
	}
	m.views[v.ID] = v
	return nil
}

func (m *memCache) Invalidate(_ context.Context, id string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if version > m.marks[id] {
		m.marks[id] = version
	}
	delete(m.views, id)
	return nil
}

type memIndex struct {
	docs    map[string]PetView
	deleted []string
}

func newMemIndex() *memIndex { return &memIndex{docs: map[string]PetView{}} }

func (m *memIndex) Index(_ context.Context, p PetView) error {
	m.docs[p.ID] = p
	return nil
}

func (m *memIndex) Delete(_ context.Context, id string) error {
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memIndex) Search(_ context.Context, query string, size int) ([]PetView, error) {
	out := []PetView{}
	for _, d := range m.docs {
		if d.Name == query && len(out) < size {
			out = append(out, d)
		}
	}
	return out, nil
}

type memPhotos struct {
	uploads map[string][]byte
}

func (m *memPhotos) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.uploads == nil {
		m.uploads = map[string][]byte{}
	}
	m.uploads[objectPath] = b
	return helpers.PublicURL("test-bucket", objectPath), nil
}

// testClock is shared by the services and the JWT manager so refresh
// expiry and validity agree.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var errStoreDown = errors.New("dial tcp 10.0.0.5:5432: connection refused")

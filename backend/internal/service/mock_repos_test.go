package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"absensi-kampus/backend/config"
	"absensi-kampus/backend/internal/model"
	"absensi-kampus/backend/internal/repository"
	"absensi-kampus/backend/pkg/jwt"
	"absensi-kampus/backend/pkg/metrics"
)

var errMockStorage = errors.New("mock: storage unavailable")

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // key: user_id
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	mu      sync.Mutex
	records []model.Attendance
	users   *mockUserRepo
	failErr error
}

func newMockAttendanceRepo(users *mockUserRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{users: users}
}

func (m *mockAttendanceRepo) Create(_ context.Context, a *model.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	a.AttendanceID = fmt.Sprintf("att-%d", len(m.records)+1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.records = append(m.records, *a)
	return nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, offset, limit int) ([]model.Attendance, int64, error) {
	all, _ := m.ListAll(ctx)
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockAttendanceRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Attendance, int64, error) {
	all, _ := m.ListAll(ctx)
	var mine []model.Attendance
	for _, a := range all {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	return paginate(mine, offset, limit), int64(len(mine)), nil
}

func (m *mockAttendanceRepo) ListAll(ctx context.Context) ([]model.Attendance, error) {
	m.mu.Lock()
	result := make([]model.Attendance, len(m.records))
	copy(result, m.records)
	m.mu.Unlock()

	for i := range result {
		if u, err := m.users.GetByID(ctx, result[i].UserID); err == nil {
			result[i].User = u
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockAttendanceRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func paginate(records []model.Attendance, offset, limit int) []model.Attendance {
	if offset >= len(records) {
		return nil
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}

// ── Mock CheckInCodeRepository ──

type mockCheckInCodeRepo struct {
	mu      sync.Mutex
	codes   []model.CheckInCode
	failErr error
}

func newMockCheckInCodeRepo() *mockCheckInCodeRepo {
	return &mockCheckInCodeRepo{}
}

func (m *mockCheckInCodeRepo) Create(_ context.Context, c *model.CheckInCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	c.CodeID = fmt.Sprintf("code-%d", len(m.codes)+1)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	m.codes = append(m.codes, *c)
	return nil
}

func (m *mockCheckInCodeRepo) GetLatestActive(_ context.Context, code string, now time.Time) (*model.CheckInCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	// 倒序遍历即创建时间倒序
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.Code == code && c.ExpiresAt.After(now) {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckInCodeRepo) ListRecent(_ context.Context, limit int) ([]model.CheckInCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.CheckInCode
	for i := len(m.codes) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.codes[i])
	}
	return result, nil
}

// ── Mock SettingRepository ──

type mockSettingRepo struct {
	mu      sync.Mutex
	values  map[string]string
	failErr error
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{values: make(map[string]string)}
}

func (m *mockSettingRepo) GetMany(_ context.Context, keys []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	result := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (m *mockSettingRepo) UpsertMany(_ context.Context, values map[string]string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *mockSettingRepo) InsertMissing(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	for k, v := range values {
		if _, ok := m.values[k]; !ok {
			m.values[k] = v
		}
	}
	return nil
}

func (m *mockSettingRepo) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// ── Mock TokenStore ──

type mockTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{revoked: make(map[string]time.Duration)}
}

func (m *mockTokenStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = ttl
	return nil
}

func (m *mockTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// ── Mock Metrics ──

type mockMetrics struct {
	metrics.Nop
	mu         sync.Mutex
	attendance map[string]int
	issued     int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{attendance: make(map[string]int)}
}

func (m *mockMetrics) ObserveAttendance(inside bool, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance[fmt.Sprintf("%t/%s", inside, code)]++
}

func (m *mockMetrics) ObserveCodeIssued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
}

// ── 测试环境 ──

type testEnv struct {
	cfg        *config.Config
	users      *mockUserRepo
	attendance *mockAttendanceRepo
	codes      *mockCheckInCodeRepo
	settings   *mockSettingRepo
	tokens     *mockTokenStore
	metrics    *mockMetrics
	jwtMgr     *jwt.Manager
	repo       *repository.Repository
	svc        *Service
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-tests-only",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Campus: config.CampusConfig{Lat: "-6.35", Lng: "107.30", RadiusM: "200"},
		Code: config.CodeConfig{
			DefaultValidityMinutes: 60,
			MaxValidityMinutes:     1440,
		},
		Bootstrap: config.BootstrapConfig{
			AdminUsername: "admin",
			AdminPassword: "admin123",
		},
	}
}

func newTestEnv() *testEnv {
	cfg := testConfig()
	users := newMockUserRepo()
	env := &testEnv{
		cfg:        cfg,
		users:      users,
		attendance: newMockAttendanceRepo(users),
		codes:      newMockCheckInCodeRepo(),
		settings:   newMockSettingRepo(),
		tokens:     newMockTokenStore(),
		metrics:    newMockMetrics(),
		jwtMgr:     jwt.NewManager(&cfg.Auth),
	}
	env.repo = &repository.Repository{
		User:        env.users,
		Attendance:  env.attendance,
		CheckInCode: env.codes,
		Setting:     env.settings,
	}
	env.svc = NewService(cfg, env.repo, env.jwtMgr, env.tokens, env.metrics, zap.NewNop())
	return env
}

// setClock 固定签到码服务的当前时间
func (e *testEnv) setClock(now func() time.Time) {
	e.svc.Code.(*codeService).now = now
}

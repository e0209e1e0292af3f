//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"absensi-kampus/backend/internal/model"
	"absensi-kampus/backend/internal/repository"
	"absensi-kampus/backend/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=absensi password=absensi_password dbname=absensi_test sslmode=disable TimeZone=Asia/Jakarta"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移脚本建表，保证与生产结构一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "数据库迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupUser 创建测试用户并返回清理函数（级联清理其签到与签到码）
func setupUser(t *testing.T) (*model.User, func()) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{
		Username:     fmt.Sprintf("u%d", time.Now().UnixNano()),
		PasswordHash: "$2a$10$placeholderplaceholderplaceholderplaceholderpl",
		Role:         model.RoleAdmin,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	cleanup := func() {
		testDB.Where("user_id = ?", user.UserID).Delete(&model.Attendance{})
		testDB.Where("created_by = ?", user.UserID).Delete(&model.CheckInCode{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return user, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: User
// ═══════════════════════════════════════════════════════════

func TestUser_UniqueUsername(t *testing.T) {
	user, cleanup := setupUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	dup := &model.User{Username: user.Username, PasswordHash: "x", Role: model.RoleUser}
	if err := repo.User.Create(ctx, dup); err == nil {
		testDB.Where("user_id = ?", dup.UserID).Delete(&model.User{})
		t.Fatal("期望用户名唯一约束生效")
	}

	found, err := repo.User.GetByUsername(ctx, user.Username)
	if err != nil {
		t.Fatalf("按用户名查询失败: %v", err)
	}
	if found.UserID != user.UserID {
		t.Errorf("ID 不匹配: expected %s, got %s", user.UserID, found.UserID)
	}

	_, err = repo.User.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Attendance
// ═══════════════════════════════════════════════════════════

func TestAttendance_CreateAndList(t *testing.T) {
	user, cleanup := setupUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	code := "123456"
	first := &model.Attendance{UserID: user.UserID, Lat: -6.35, Lng: 107.30, CodeUsed: &code, Inside: true}
	if err := repo.Attendance.Create(ctx, first); err != nil {
		t.Fatalf("创建签到失败: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	second := &model.Attendance{UserID: user.UserID, Lat: -6.40, Lng: 107.30}
	if err := repo.Attendance.Create(ctx, second); err != nil {
		t.Fatalf("创建签到失败: %v", err)
	}

	if first.AttendanceID == "" || first.CreatedAt.IsZero() {
		t.Error("期望数据库回填 ID 与创建时间")
	}

	records, total, err := repo.Attendance.ListByUser(ctx, user.UserID, 0, 10)
	if err != nil {
		t.Fatalf("ListByUser 失败: %v", err)
	}
	if total != 2 || len(records) != 2 {
		t.Fatalf("期望 2 条，实际 total=%d len=%d", total, len(records))
	}
	if records[0].AttendanceID != second.AttendanceID {
		t.Error("期望按创建时间倒序")
	}
	if records[0].Username() != user.Username {
		t.Errorf("期望预加载用户名，实际: %q", records[0].Username())
	}
	if records[0].CodeUsed != nil || records[1].CodeUsed == nil || *records[1].CodeUsed != code {
		t.Error("code_used 读回异常")
	}

	all, err := repo.Attendance.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll 失败: %v", err)
	}
	if len(all) < 2 {
		t.Errorf("ListAll 至少应包含 2 条，实际: %d", len(all))
	}
}

func TestAttendance_UnknownUserRejected(t *testing.T) {
	repo := repository.NewRepository(testDB)

	a := &model.Attendance{UserID: "00000000-0000-0000-0000-000000000000", Lat: 0, Lng: 0}
	if err := repo.Attendance.Create(context.Background(), a); err == nil {
		testDB.Where("attendance_id = ?", a.AttendanceID).Delete(&model.Attendance{})
		t.Fatal("期望外键约束拒绝不存在的用户")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: CheckInCode
// ═══════════════════════════════════════════════════════════

func TestCheckInCode_LatestActive(t *testing.T) {
	user, cleanup := setupUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	now := time.Now()
	value := fmt.Sprintf("%06d", now.UnixNano()%1000000)

	expired := &model.CheckInCode{Code: value, ExpiresAt: now.Add(-time.Minute), CreatedBy: user.UserID}
	older := &model.CheckInCode{Code: value, ExpiresAt: now.Add(10 * time.Minute), CreatedBy: user.UserID, CreatedAt: now.Add(-2 * time.Minute)}
	newer := &model.CheckInCode{Code: value, ExpiresAt: now.Add(5 * time.Minute), CreatedBy: user.UserID, CreatedAt: now.Add(-time.Minute)}
	for _, c := range []*model.CheckInCode{expired, older, newer} {
		if err := repo.CheckInCode.Create(ctx, c); err != nil {
			t.Fatalf("创建签到码失败: %v", err)
		}
	}

	found, err := repo.CheckInCode.GetLatestActive(ctx, value, now)
	if err != nil {
		t.Fatalf("GetLatestActive 失败: %v", err)
	}
	if found.CodeID != newer.CodeID {
		t.Errorf("期望最新创建的有效码 %s，实际 %s", newer.CodeID, found.CodeID)
	}

	// 过期时间等于 now 视为失效
	_, err = repo.CheckInCode.GetLatestActive(ctx, value, now.Add(10*time.Minute))
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望边界时刻失效，实际: %v", err)
	}

	recent, err := repo.CheckInCode.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent 失败: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("期望 limit 生效，实际: %d", len(recent))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Setting
// ═══════════════════════════════════════════════════════════

func TestSetting_UpsertAndInsertMissing(t *testing.T) {
	user, cleanup := setupUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	prefix := fmt.Sprintf("TEST_%d_", time.Now().UnixNano())
	keyA, keyB := prefix+"A", prefix+"B"
	defer testDB.Where("key IN ?", []string{keyA, keyB}).Delete(&model.Setting{})

	if err := repo.Setting.InsertMissing(ctx, map[string]string{keyA: "1"}); err != nil {
		t.Fatalf("InsertMissing 失败: %v", err)
	}
	// 已存在的键不被覆盖
	if err := repo.Setting.InsertMissing(ctx, map[string]string{keyA: "2", keyB: "3"}); err != nil {
		t.Fatalf("InsertMissing 失败: %v", err)
	}

	got, err := repo.Setting.GetMany(ctx, []string{keyA, keyB, prefix + "C"})
	if err != nil {
		t.Fatalf("GetMany 失败: %v", err)
	}
	if got[keyA] != "1" || got[keyB] != "3" {
		t.Errorf("InsertMissing 结果异常: %v", got)
	}
	if _, ok := got[prefix+"C"]; ok {
		t.Error("缺失的键不应出现在结果中")
	}

	if err := repo.Setting.UpsertMany(ctx, map[string]string{keyA: "10", keyB: "20"}, user.UserID); err != nil {
		t.Fatalf("UpsertMany 失败: %v", err)
	}
	got, err = repo.Setting.GetMany(ctx, []string{keyA, keyB})
	if err != nil {
		t.Fatalf("GetMany 失败: %v", err)
	}
	if got[keyA] != "10" || got[keyB] != "20" {
		t.Errorf("UpsertMany 结果异常: %v", got)
	}

	var row model.Setting
	if err := testDB.Where("key = ?", keyA).First(&row).Error; err != nil {
		t.Fatalf("读取配置行失败: %v", err)
	}
	if row.UpdatedBy == nil || *row.UpdatedBy != user.UserID {
		t.Error("期望记录 updated_by")
	}
}

// [自证通过] internal/repository/integration_test.go

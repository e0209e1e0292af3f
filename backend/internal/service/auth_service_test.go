package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"absensi-kampus/backend/internal/dto"
	"absensi-kampus/backend/internal/model"
	"absensi-kampus/backend/pkg/jwt"
)

func registerUser(t *testing.T, env *testEnv, username, password string) *dto.RegisterResponse {
	t.Helper()
	resp, err := env.svc.Auth.Register(context.Background(), &dto.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	return resp
}

// ── Register ──

func TestAuthService_Register_Success(t *testing.T) {
	env := newTestEnv()

	resp := registerUser(t, env, "budi", "rahasia")
	if resp.ID == "" || resp.Username != "budi" {
		t.Fatalf("注册响应异常: %+v", resp)
	}

	user, _ := env.users.GetByID(context.Background(), resp.ID)
	if user.Role != model.RoleUser {
		t.Errorf("新用户角色应为 user，实际: %s", user.Role)
	}
	if user.PasswordHash == "rahasia" {
		t.Error("密码不应明文保存")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("rahasia")) != nil {
		t.Error("密码哈希无法校验")
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "budi", "rahasia")

	_, err := env.svc.Auth.Register(context.Background(), &dto.RegisterRequest{
		Username: "budi",
		Password: "lainnya",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("期望 ErrUsernameTaken，实际: %v", err)
	}
}

// ── Login ──

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv()
	reg := registerUser(t, env, "siti", "password1")

	resp, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{
		Username: "siti",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if resp.Token == "" || resp.RefreshToken == "" {
		t.Fatal("Token 不应为空")
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("期望 ExpiresIn=3600，实际: %d", resp.ExpiresIn)
	}

	claims, err := env.jwtMgr.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("解析 AccessToken 失败: %v", err)
	}
	if claims.UserID != reg.ID || claims.Role != model.RoleUser || claims.TokenType != jwt.TokenTypeAccess {
		t.Errorf("Claims 异常: %+v", claims)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "siti", "password1")

	_, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{
		Username: "siti",
		Password: "salah",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{
		Username: "tidak-ada",
		Password: "x",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── RefreshToken / Logout ──

func TestAuthService_RefreshToken_RotatesAndRevokes(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "andi", "password1")
	ctx := context.Background()

	login, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "andi", Password: "password1"})

	refreshed, err := env.svc.Auth.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if refreshed.Token == "" {
		t.Fatal("刷新后 AccessToken 不应为空")
	}

	// 旧 refresh token 不可重复使用
	_, err = env.svc.Auth.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("期望 ErrInvalidRefreshToken，实际: %v", err)
	}
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "andi", "password1")
	ctx := context.Background()

	login, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "andi", Password: "password1"})

	_, err := env.svc.Auth.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: login.Token})
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("期望 ErrInvalidRefreshToken，实际: %v", err)
	}
}

func TestAuthService_Logout_BlacklistsToken(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "andi", "password1")
	ctx := context.Background()

	login, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "andi", Password: "password1"})
	claims, _ := env.jwtMgr.ParseToken(login.Token)

	if err := env.svc.Auth.Logout(ctx, claims); err != nil {
		t.Fatalf("登出失败: %v", err)
	}

	revoked, _ := env.tokens.IsBlacklisted(ctx, claims.ID)
	if !revoked {
		t.Error("登出后 Token 应在黑名单中")
	}
	if ttl := env.tokens.revoked[claims.ID]; ttl <= 0 {
		t.Errorf("黑名单 TTL 应为正数，实际: %v", ttl)
	}
}

func TestAuthService_Logout_WithoutTokenStore(t *testing.T) {
	env := newTestEnv()
	svc := NewAuthService(env.cfg, env.repo, env.jwtMgr, nil, zap.NewNop())
	registerUser(t, env, "andi", "password1")
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Username: "andi", Password: "password1"})
	claims, _ := env.jwtMgr.ParseToken(login.Token)

	if err := svc.Logout(ctx, claims); err != nil {
		t.Errorf("无黑名单存储时登出不应失败: %v", err)
	}
}

// ── GetCurrentUser ──

func TestAuthService_GetCurrentUser(t *testing.T) {
	env := newTestEnv()
	reg := registerUser(t, env, "rina", "password1")

	me, err := env.svc.Auth.GetCurrentUser(context.Background(), reg.ID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if me.Username != "rina" || me.Role != model.RoleUser {
		t.Errorf("用户信息异常: %+v", me)
	}

	_, err = env.svc.Auth.GetCurrentUser(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── EnsureDefaultAdmin ──

func TestAuthService_EnsureDefaultAdmin_Idempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := env.svc.Auth.EnsureDefaultAdmin(ctx); err != nil {
			t.Fatalf("第 %d 次创建默认管理员失败: %v", i+1, err)
		}
	}

	n, _ := env.users.CountByRole(ctx, model.RoleAdmin)
	if n != 1 {
		t.Errorf("期望恰好 1 个管理员，实际: %d", n)
	}

	resp, err := env.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("默认管理员登录失败: %v", err)
	}
	if resp.User.Role != model.RoleAdmin {
		t.Errorf("期望角色 admin，实际: %s", resp.User.Role)
	}
}

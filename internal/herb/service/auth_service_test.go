package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/testutil"
)

func TestRefreshTokenConsumedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	repos := repository.NewRepositories(f.db)
	auth := NewAuthService(repos.Organization, repos.User, rdb, testConfig().JWT)

	login, err := auth.Login(ctx, &LoginRequest{Email: f.farmer.Email, Password: testutil.TestPassword})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("Expected one stored refresh token, got %v", mr.Keys())
	}

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.Refresh(ctx, login.Tokens.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if se, ok := err.(*Error); ok && se.Status == http.StatusUnauthorized {
				rejected++
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || rejected != attempts-1 {
		t.Fatalf("Expected exactly one refresh to succeed, got %d ok / %d rejected", succeeded, rejected)
	}
	// 旧令牌已消费，只剩轮换后的新令牌
	if len(mr.Keys()) != 1 {
		t.Fatalf("Expected only the rotated refresh token to remain, got %v", mr.Keys())
	}

	_, err = auth.Refresh(ctx, login.Tokens.RefreshToken)
	expectStatus(t, err, http.StatusUnauthorized)
}

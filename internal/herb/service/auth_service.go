package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/config"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
)

const refreshKeyPrefix = "ayutrace:refresh:"

// AuthService 认证服务
type AuthService struct {
	orgRepo  *repository.OrganizationRepository
	userRepo *repository.UserRepository
	rdb      *redis.Client
	cfg      config.JWTConfig
	now      func() time.Time
}

// NewAuthService rdb 为 nil 时刷新令牌不做服务端登记
func NewAuthService(orgRepo *repository.OrganizationRepository, userRepo *repository.UserRepository, rdb *redis.Client, cfg config.JWTConfig) *AuthService {
	return &AuthService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
		rdb:      rdb,
		cfg:      cfg,
		now:      time.Now,
	}
}

// TokenPair Token对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest 组织注册请求：组织 + 首个用户
type RegisterRequest struct {
	OrganizationName   string `json:"organization_name" binding:"required,max=200"`
	OrganizationType   string `json:"organization_type" binding:"required,oneof=FARMER MANUFACTURER LABS DISTRIBUTOR"`
	RegistrationNumber string `json:"registration_number" binding:"required,max=64"`
	OrganizationEmail  string `json:"organization_email" binding:"omitempty,email"`
	Address            string `json:"address" binding:"max=500"`
	Location           string `json:"location" binding:"max=200"`
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required,min=8,max=72"`
	FirstName          string `json:"first_name" binding:"required,max=100"`
	LastName           string `json:"last_name" binding:"max=100"`
	Phone              string `json:"phone" binding:"max=50"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新/登出请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResult 登录/注册结果
type AuthResult struct {
	User   *entity.User `json:"user"`
	Tokens *TokenPair   `json:"tokens"`
}

// Register 注册组织及其管理员
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	if !entity.Contains(entity.PublicOrgTypes, req.OrganizationType) {
		return nil, Validation(FieldError{Field: "organization_type", Rule: "oneof"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	org := &entity.Organization{
		ID:                 uuid.New().String(),
		Name:               req.OrganizationName,
		Type:               req.OrganizationType,
		RegistrationNumber: req.RegistrationNumber,
		Email:              req.OrganizationEmail,
		Phone:              req.Phone,
		Address:            req.Address,
		Location:           req.Location,
		IsActive:           true,
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         entity.RoleAdmin,
		IsActive:     true,
	}
	if err := s.orgRepo.CreateWithUser(ctx, org, user); err != nil {
		return nil, conflict(err, "organization")
	}
	user.Organization = org

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login 邮箱密码登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, Unauthorized("invalid email or password")
	}
	if err := checkActive(user); err != nil {
		return nil, err
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.userRepo.TouchLogin(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func checkActive(user *entity.User) error {
	if !user.IsActive {
		return Forbidden("user is deactivated")
	}
	if user.Organization != nil && !user.Organization.IsActive {
		return Forbidden("organization is deactivated")
	}
	return nil
}

// generateTokenPair 生成Token对
func (s *AuthService) generateTokenPair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := s.now()
	orgType := ""
	if user.Organization != nil {
		orgType = user.Organization.Type
	}

	accessClaims := jwt.MapClaims{
		"sub":      user.ID,
		"uid":      user.ID,
		"email":    user.Email,
		"org":      user.OrganizationID,
		"org_type": orgType,
		"role":     user.Role,
		"roles":    []string{user.Role},
		"typ":      "access",
		"iss":      s.cfg.Issuer,
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.AccessTokenExpire).Unix(),
		"jti":      uuid.New().String(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub": user.ID,
		"uid": user.ID,
		"typ": "refresh",
		"iss": s.cfg.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.RefreshTokenExpire).Unix(),
		"jti": refreshJti,
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	// 存储Refresh Token到Redis
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, refreshKeyPrefix+refreshJti, user.ID, s.cfg.RefreshTokenExpire).Err(); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenExpire.Seconds()),
	}, nil
}

// parseRefresh 校验刷新令牌，返回 jti 与用户ID
func (s *AuthService) parseRefresh(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", Unauthorized("invalid refresh token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["typ"] != "refresh" {
		return "", "", Unauthorized("invalid refresh token")
	}
	jti, _ := claims["jti"].(string)
	userID, _ := claims["uid"].(string)
	if jti == "" || userID == "" {
		return "", "", Unauthorized("invalid refresh token")
	}
	return jti, userID, nil
}

// Refresh 刷新Token，旧的刷新令牌作废
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	jti, userID, err := s.parseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		// GETDEL 原子消费，并发刷新只有一个成功
		stored, err := s.rdb.GetDel(ctx, refreshKeyPrefix+jti).Result()
		if errors.Is(err, redis.Nil) || (err == nil && stored != userID) {
			return nil, Unauthorized("refresh token expired or revoked")
		}
		if err != nil {
			return nil, fmt.Errorf("consume refresh token: %w", err)
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Unauthorized("user not found")
	}
	if err != nil {
		return nil, err
	}
	if err := checkActive(user); err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, user)
}

// Logout 作废刷新令牌
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	jti, _, err := s.parseRefresh(refreshToken)
	if err != nil {
		return err
	}
	if s.rdb != nil {
		return s.rdb.Del(ctx, refreshKeyPrefix+jti).Err()
	}
	return nil
}

// Me 当前用户（含组织）
func (s *AuthService) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

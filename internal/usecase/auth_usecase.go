package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/chat-server/internal/config"
	"github.com/nguyentranbao-ct/chat-server/internal/models"
	"github.com/nguyentranbao-ct/chat-server/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-server/pkg/crypto"
)

type AuthUsecase interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	// Verify validates a bearer credential and resolves it to the user it
	// was issued for. It is called once per socket handshake and on every
	// authenticated HTTP request. Fails closed: any missing, malformed, or
	// expired token yields ErrUnauthorized.
	Verify(ctx context.Context, token string) (*models.User, error)
}

type authUsecase struct {
	userRepo    mongodb.UserRepository
	jwtSecret   string
	tokenExpiry time.Duration
}

func NewAuthUsecase(userRepo mongodb.UserRepository, conf *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo:    userRepo,
		jwtSecret:   conf.Auth.JWTSecret,
		tokenExpiry: conf.Auth.TokenExpiry,
	}
}

func (uc *authUsecase) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if _, err := uc.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", models.ErrConflict)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := uc.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", models.ErrConflict)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (uc *authUsecase) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !crypto.ComparePassword(user.Password, req.Password) {
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthorized)
	}

	token, expiresAt, err := uc.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	return &models.LoginResponse{
		Token:     token,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

func (uc *authUsecase) Verify(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := uc.parseJWT(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", models.ErrUnauthorized)
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token: %w", models.ErrUnauthorized)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", models.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (uc *authUsecase) generateJWT(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(uc.tokenExpiry)

	claims := jwt.MapClaims{
		"user_id":  user.ID.Hex(),
		"username": user.Username,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(uc.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (uc *authUsecase) parseJWT(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(uc.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	if userID == "" {
		return nil, errors.New("missing user_id claim")
	}

	out := &models.JWTClaims{UserID: userID, Username: username}
	if exp, ok := claims["exp"].(float64); ok {
		out.Exp = int64(exp)
	}
	if iat, ok := claims["iat"].(float64); ok {
		out.Iat = int64(iat)
	}
	return out, nil
}

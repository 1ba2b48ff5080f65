package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"wordreminder/internal/config"
)

// MinSecretLength is the shortest JWT secret Init accepts.
const MinSecretLength = 32

var jwtSecret []byte
var refreshSecret []byte
var accessTokenMinutes = 15
var refreshTokenDays = 7
var rememberRefreshDays = 30
var CookieSecure = true

// Init installs the signing secrets and token lifetimes. It must run before
// any token is issued or validated.
func Init(cfg config.AuthConfig) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required and must not be empty")
	}
	if len(cfg.JWTSecret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters long", MinSecretLength)
	}
	jwtSecret = []byte(cfg.JWTSecret)

	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.JWTSecret + "-refresh"
	}
	refreshSecret = []byte(refresh)
	CookieSecure = cfg.CookieSecure

	if cfg.AccessTokenMinutes > 0 {
		accessTokenMinutes = cfg.AccessTokenMinutes
	}
	if cfg.RefreshTokenDays > 0 {
		refreshTokenDays = cfg.RefreshTokenDays
	}
	if cfg.RememberRefreshDays > 0 {
		rememberRefreshDays = cfg.RememberRefreshDays
	}
	return nil
}

type Claims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type,omitempty"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// newTokenID makes tokens issued within the same second distinct.
func newTokenID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func sign(claims Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth not initialized")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GenerateToken creates a short-lived access token
func GenerateToken(userID int, email string) (string, error) {
	now := time.Now()
	return sign(Claims{
		UserID:    userID,
		Email:     email,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newTokenID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(accessTokenMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}, jwtSecret)
}

// GenerateRefreshToken creates a refresh token that expires after the given number of days
func GenerateRefreshToken(userID int, email string, days int) (string, error) {
	if days <= 0 {
		days = refreshTokenDays
	}
	now := time.Now()
	return sign(Claims{
		UserID:    userID,
		Email:     email,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newTokenID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(days) * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}, refreshSecret)
}

func parse(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.TokenType != tokenType {
			return nil, errors.New("invalid token type")
		}
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func ValidateToken(tokenString string) (*Claims, error) {
	return parse(tokenString, jwtSecret, "access")
}

// ValidateRefreshToken validates a refresh token
func ValidateRefreshToken(tokenString string) (*Claims, error) {
	return parse(tokenString, refreshSecret, "refresh")
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func CheckPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// RefreshDays returns configured refresh token TTL in days depending on remember flag
func RefreshDays(remember bool) int {
	if remember {
		return rememberRefreshDays
	}
	return refreshTokenDays
}

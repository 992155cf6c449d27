package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Роли пользователей в токене
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const issuer = "habitleague-api"

// ErrInvalidToken токен не прошёл проверку подписи, срока или формата
var ErrInvalidToken = errors.New("invalid or expired token")

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin сообщает, выдан ли токен администратору
func (c *JWTCustomClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// JWTService выпускает и проверяет токены доступа (HS256).
// Учётные записи и вход живут во внешнем сервисе, здесь только проверка.
type JWTService struct {
	secret        []byte
	expirationHrs int
	now           func() time.Time
}

// NewJWTService создает новый сервис JWT
func NewJWTService(secret string, expirationHrs int) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	return &JWTService{secret: []byte(secret), expirationHrs: expirationHrs, now: time.Now}, nil
}

// GenerateToken создает токен для пользователя. Используется CLI и тестами.
func (s *JWTService) GenerateToken(userID uint, email, role string) (string, error) {
	if role == "" {
		role = RoleUser
	}
	now := s.now()
	claims := &JWTCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour * time.Duration(s.expirationHrs))),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%d", userID),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken проверяет подпись и срок действия токена
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	return claims, nil
}

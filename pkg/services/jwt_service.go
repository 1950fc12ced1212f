package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Claims defines the JWT claims (payload).
// We embed jwt.RegisteredClaims for standard claims like ExpiresAt, IssuedAt.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

// TokenService signs and validates the session tokens issued at login.
// The secret is injected once at startup rather than read from the
// environment on every call.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// GenerateToken generates a new JWT token for a given user.
func (s *TokenService) GenerateToken(userID uuid.UUID, email, username string) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)

	claims := &Claims{
		UserID:   userID,
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "passer-api",
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		log.Errorf("Failed to sign JWT token for user %s: %v", email, err)
		return "", err
	}

	log.Debugf("Generated JWT for user %s, expires at %s", email, expirationTime.Format(time.RFC3339))
	return tokenString, nil
}

// resetAudience marks a token as usable only for the password-reset flow,
// so a session token can never confirm a reset and vice versa.
const resetAudience = "password-reset"

// GenerateResetToken issues a short-lived token that authorizes exactly one
// password reset for the user. Delivering it to the user is out of scope
// here; the caller decides the channel.
func (s *TokenService) GenerateResetToken(userID uuid.UUID, email string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "passer-api",
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{resetAudience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		log.Errorf("Failed to sign reset token for user %s: %v", email, err)
		return "", err
	}
	return tokenString, nil
}

// ValidateResetToken validates a password-reset token and returns its
// claims. Ordinary session tokens are rejected.
func (s *TokenService) ValidateResetToken(tokenString string) (*Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !isResetToken(claims) {
		log.Warn("Token presented for password reset is not a reset token.")
		return nil, jwt.ErrTokenInvalidAudience
	}
	return claims, nil
}

// ValidateToken validates a session JWT and returns the claims if valid.
// Reset tokens do not open sessions.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if isResetToken(claims) {
		log.Warn("Reset token presented as a session token.")
		return nil, jwt.ErrTokenInvalidAudience
	}
	return claims, nil
}

func isResetToken(claims *Claims) bool {
	for _, aud := range claims.Audience {
		if aud == resetAudience {
			return true
		}
	}
	return false
}

func (s *TokenService) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})

	if err != nil {
		log.Warnf("JWT validation failed: %v", err)
		return nil, err
	}

	if !token.Valid {
		log.Warn("Invalid JWT token.")
		return nil, jwt.ErrInvalidKey
	}

	return claims, nil
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// TokenCookie carries the JWT for browser clients.
	TokenCookie = "yatube_token"
	// TokenIssuer and TokenAudience are checked on every token.
	TokenIssuer   = "yatube-api"
	TokenAudience = "yatube-client"
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL = 24 * time.Hour
	// LoginPath is where unauthenticated users are sent.
	LoginPath = "/auth/login/"
)

// Claims are the JWT claims the app issues and accepts.
type Claims struct {
	UserID uint
	JTI    string
	Expiry time.Time
}

// IssueToken signs a token for userID with a fresh jti.
func IssueToken(secret string, userID uint) (string, Claims, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		JTI:    uuid.NewString(),
		Expiry: now.Add(TokenTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"iat": now.Unix(),
		"exp": claims.Expiry.Unix(),
		"jti": claims.JTI,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// ParseToken validates a token and returns its claims.
func ParseToken(secret, tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithAudience(TokenAudience), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid token claims")
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok {
		return Claims{}, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return Claims{}, errors.New("invalid user ID in token")
	}

	claims := Claims{UserID: uint(userID)}
	claims.JTI, _ = mapClaims["jti"].(string)
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.Expiry = exp.Time
	}
	return claims, nil
}

// TokenFromRequest reads the token from the Authorization header or the cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Cookies(TokenCookie)
}

// RevokeToken blacklists a jti until the token would have expired anyway.
func RevokeToken(ctx context.Context, rdb *redis.Client, claims Claims) error {
	if rdb == nil || claims.JTI == "" {
		return nil
	}
	ttl := time.Until(claims.Expiry)
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, "blacklist:"+claims.JTI, "1", ttl).Err()
}

func isRevoked(ctx context.Context, rdb *redis.Client, jti string) bool {
	if rdb == nil || jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, "blacklist:"+jti).Result()
	return err == nil && n > 0
}

// OptionalAuth resolves the viewer from the request token when one is present.
// Requests without a valid token continue as anonymous.
func OptionalAuth(secret string, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			return c.Next()
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			Logger.DebugContext(c.UserContext(), "ignoring invalid token", "error", err)
			return c.Next()
		}
		if isRevoked(c.UserContext(), rdb, claims.JTI) {
			return c.Next()
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		ctx := context.WithValue(c.UserContext(), UserIDKey, claims.UserID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// UserID returns the signed-in user id set by OptionalAuth.
func UserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok && uid != 0
}

// LoginURL builds the login redirect for the page at next.
func LoginURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// LoginRequired redirects anonymous requests to the login page.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return c.Redirect(LoginURL(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}

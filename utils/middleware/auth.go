package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/model"
	"github.com/learnloft/api/utils/auth"
	"github.com/learnloft/api/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware authenticates requests from bearer tokens. Every
// accepted token must be an unrevoked access token whose version still
// matches the user row.
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authErr carries the response the caller should render when
// authentication fails
type authErr struct {
	status  int
	message string
}

// authenticate runs the full token check: header shape, signature,
// token type, blacklist, and token version against the stored user.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, *model.User, *authErr) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, &authErr{fiber.StatusUnauthorized, "Missing authorization token"}
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, &authErr{fiber.StatusUnauthorized, "Invalid authorization format"}
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, &authErr{fiber.StatusUnauthorized, "Token has expired"}
		}
		return nil, nil, &authErr{fiber.StatusUnauthorized, "Invalid token"}
	}

	if claims.TokenType != auth.TokenTypeAccess {
		return nil, nil, &authErr{fiber.StatusUnauthorized, "Invalid token type"}
	}

	isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return nil, nil, &authErr{fiber.StatusInternalServerError, "Failed to check token status"}
	}
	if isRevoked {
		return nil, nil, &authErr{fiber.StatusUnauthorized, "Token has been revoked"}
	}

	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &authErr{fiber.StatusUnauthorized, "User not found"}
		}
		return nil, nil, &authErr{fiber.StatusInternalServerError, "Failed to load user"}
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, &authErr{fiber.StatusUnauthorized, "Token has been invalidated"}
	}

	return claims, &user, nil
}

func renderAuthErr(c *fiber.Ctx, e *authErr) error {
	if e.status == fiber.StatusInternalServerError {
		return response.InternalServerError(c, e.message)
	}
	return response.Unauthorized(c, e.message)
}

func storeAuthContext(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals("user_id", claims.UserID)
	c.Locals("user_role", claims.Role)
	c.Locals("user", user)
	c.Locals("token_jti", claims.ID)
}

// Required rejects requests without a valid access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, authFailure := m.authenticate(c)
		if authFailure != nil {
			return renderAuthErr(c, authFailure)
		}

		storeAuthContext(c, claims, user)
		return c.Next()
	}
}

// Optional authenticates when a valid token is present and otherwise
// lets the request continue anonymously. Catalog reads use this so
// admins see unpublished content through the same endpoints.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}

		claims, user, authFailure := m.authenticate(c)
		if authFailure != nil {
			return c.Next()
		}

		storeAuthContext(c, claims, user)
		return c.Next()
	}
}

// RequireAdmin rejects requests unless the token belongs to an admin
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, authFailure := m.authenticate(c)
		if authFailure != nil {
			return renderAuthErr(c, authFailure)
		}

		if claims.Role != "admin" {
			return response.Forbidden(c, "Admin access required")
		}

		storeAuthContext(c, claims, user)
		return c.Next()
	}
}

// GetUserID extracts the authenticated user's ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserRole extracts the authenticated user's role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role := c.Locals("user_role")
	if role == nil {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}

// GetUser extracts the full user record from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetTokenJTI extracts the access token's JTI from context, used when
// revoking the token on logout
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti := c.Locals("token_jti")
	if jti == nil {
		return "", false
	}
	j, ok := jti.(string)
	return j, ok
}

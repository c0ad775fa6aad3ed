package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/config"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	bearerPrefix = "Bearer "
	tenantKey    = "tenant"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carries the staff member as subject plus the tenant. Admin tokens
// may leave PharmacyID empty.
type Claims struct {
	PharmacyID string `json:"pharmacy_id,omitempty"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokens(cfg config.AuthConfig) (*Tokens, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret not configured (set JWT_SECRET)")
	}
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, ttl: ttl}, nil
}

func (t *Tokens) Issue(tenant domain.TenantContext) (string, error) {
	if tenant.StaffID == uuid.Nil {
		return "", domain.NewValidationError("staff_id", "required")
	}
	if tenant.PharmacyID == uuid.Nil && !tenant.IsAdmin() {
		return "", domain.NewValidationError("pharmacy_id", "required for staff tokens")
	}

	now := time.Now()
	claims := &Claims{
		Role: string(tenant.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenant.StaffID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	if tenant.PharmacyID != uuid.Nil {
		claims.PharmacyID = tenant.PharmacyID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (domain.TenantContext, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims Claims
	token, err := jwt.NewParser(opts...).ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.TenantContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	staffID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.TenantContext{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.TenantContext{}, fmt.Errorf("%w: bad role", ErrInvalidToken)
	}
	tenant := domain.TenantContext{StaffID: staffID, Role: role}
	if claims.PharmacyID != "" {
		if tenant.PharmacyID, err = uuid.Parse(claims.PharmacyID); err != nil {
			return domain.TenantContext{}, fmt.Errorf("%w: bad pharmacy", ErrInvalidToken)
		}
	}
	if tenant.PharmacyID == uuid.Nil && role != domain.RoleAdmin {
		return domain.TenantContext{}, fmt.Errorf("%w: staff token without pharmacy", ErrInvalidToken)
	}
	return tenant, nil
}

// Auth resolves the bearer token into a TenantContext on the gin context.
func Auth(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if len(h) <= len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		tenant, err := tokens.Parse(strings.TrimSpace(h[len(bearerPrefix):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}
		c.Set(tenantKey, tenant)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := TenantFrom(c)
		if ok {
			for _, r := range roles {
				if tenant.Role == r {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error()})
	}
}

// RequirePharmacy rejects tokens that are not bound to a pharmacy.
func RequirePharmacy() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := TenantFrom(c)
		if !ok || tenant.PharmacyID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is not bound to a pharmacy"})
			return
		}
		c.Next()
	}
}

func TenantFrom(c *gin.Context) (domain.TenantContext, bool) {
	v, ok := c.Get(tenantKey)
	if !ok {
		return domain.TenantContext{}, false
	}
	tenant, ok := v.(domain.TenantContext)
	return tenant, ok
}

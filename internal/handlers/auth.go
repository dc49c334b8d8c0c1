package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/config"
	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/services"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

var errUnknownRole = errors.New("token carries no recognised role")

// TokenVerifier turns a bearer token into the acting user.
type TokenVerifier interface {
	Verify(token string) (services.Actor, error)
}

// CasdoorVerifier checks tokens issued by the Casdoor identity provider. The
// role comes from the user's tag; Casdoor admins act as admin.
type CasdoorVerifier struct{}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	casdoorsdk.InitConfig(cfg.Endpoint, cfg.ClientID, cfg.ClientSecret, cfg.Certificate, cfg.Organization, cfg.Application)
	return &CasdoorVerifier{}
}

func (v *CasdoorVerifier) Verify(token string) (services.Actor, error) {
	claims, err := casdoorsdk.ParseJwtToken(token)
	if err != nil {
		return services.Actor{}, fmt.Errorf("failed to parse casdoor token: %w", err)
	}

	id := claims.User.Id
	if id == "" {
		id = claims.User.Name
	}
	if claims.User.IsAdmin {
		return services.Actor{ID: id, Role: models.RoleAdmin}, nil
	}
	role, ok := parseRole(claims.User.Tag)
	if !ok {
		return services.Actor{}, errUnknownRole
	}
	return services.Actor{ID: id, Role: role}, nil
}

// HMACClaims is the payload of locally signed tokens.
type HMACClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// HMACVerifier checks HS256 tokens signed with a shared secret. It serves
// deployments without Casdoor and service-to-service calls.
type HMACVerifier struct {
	secret []byte
	issuer string
}

func NewHMACVerifier(secret, issuer string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for subject with the given role.
func (v *HMACVerifier) Issue(subject string, role models.UserRole, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &HMACClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *HMACVerifier) Verify(tokenStr string) (services.Actor, error) {
	claims := &HMACClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return services.Actor{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return services.Actor{}, errors.New("token has no subject")
	}
	role, ok := parseRole(claims.Role)
	if !ok {
		return services.Actor{}, errUnknownRole
	}
	return services.Actor{ID: claims.Subject, Role: role}, nil
}

func parseRole(value string) (models.UserRole, bool) {
	switch role := models.UserRole(strings.ToLower(strings.TrimSpace(value))); role {
	case models.RoleStudent, models.RoleTeacher, models.RoleAdmin:
		return role, true
	}
	return "", false
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the actor in the Gin context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Missing bearer token"})
			return
		}

		actor, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
				Details: err.Error(),
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRole lets only the listed roles through. Admins always pass.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
			return
		}
		if actor.IsAdmin() {
			c.Next()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{"role": actor.Role},
		})
	}
}

func actorFromContext(c *gin.Context) (services.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return services.Actor{}, false
	}
	actor, ok := value.(services.Actor)
	return actor, ok
}

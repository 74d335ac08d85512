package echoapi

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
)

const (
	contextTokenKey = "adminToken"
	tokenAudience   = "MySchool"
)

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
// A token either administers one school or, with IsSystem, the whole registry.
type Claims struct {
	jwt.StandardClaims
	School   string `json:"school,omitempty"`
	SchoolID int    `json:"school_id,omitempty"`
	IsSystem bool   `json:"is_system,omitempty"`
}

func newClaims(conf *core.Config, subject string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
}

// NewSchoolClaims returns the claims of an admin of `sch`.
func NewSchoolClaims(conf *core.Config, sch school.School) *Claims {
	claims := newClaims(conf, fmt.Sprintf("school:%d", sch.ID))
	claims.School = sch.Name
	claims.SchoolID = sch.ID
	return claims
}

// NewSystemClaims returns the claims of a system admin.
func NewSystemClaims(conf *core.Config, name string) *Claims {
	claims := newClaims(conf, name)
	claims.IsSystem = true
	return claims
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextActor identifies the caller for logs. Anonymous callers only carry the request ID.
func getContextActor(ctx echo.Context) core.Actor {
	actor := core.Actor{
		School:    ctx.Param("school"),
		RequestID: ctx.Response().Header().Get(echo.HeaderXRequestID),
	}
	if claims, err := getContextClaims(ctx); err == nil {
		actor.ID = claims.Subject
		actor.IsSystem = claims.IsSystem
		if claims.School != "" {
			actor.Name = claims.School
			actor.School = claims.School
		}
	}
	return actor
}

// canAdminister reports whether the claims grant admin access to `sch`.
// School tokens are bound to the school ID: names can be changed and reused.
func (c Claims) canAdminister(sch school.School) bool {
	if c.IsSystem {
		return true
	}
	return c.SchoolID != 0 && c.SchoolID == sch.ID
}

package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/admin"
	"github.com/findmytutor/findmytutor/services/throttle"
)

const contextTokenKey = "adminToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(signingKey(conf)),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func signingKey(conf *core.Config) string {
	if conf.SecretKey == "" {
		return core.FallbackSecretKey
	}
	return conf.SecretKey
}

// NewAdminClaims returns the claims of a session for email, valid for conf.Server.JWTExpirationDelta.
func NewAdminClaims(conf *core.Config, email string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: email,
		Role:  admin.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	ss, err := token.SignedString([]byte(signingKey(conf)))
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

type authApi struct {
	conf     *core.Config
	logger   core.Logger
	creds    *admin.Credentials
	limiter  throttle.Limiter
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		logger:   deps.Logger,
		creds:    deps.Credentials,
		limiter:  deps.Limiter,
		validate: deps.Validate,
	}
	g.POST("/admin-login", api.login)
}

func (api *authApi) login(ctx echo.Context) error {
	var data admin.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	key := "login:" + ctx.RealIP()
	if !api.take(rctx, key) {
		return errTooManyAttempts
	}

	if err := api.creds.Check(data.Email, data.Password); err != nil {
		return errInvalidCredentials
	}
	if err := api.limiter.Reset(rctx, key); err != nil {
		api.logger.Warn(fmt.Sprintf("resetting login attempts: %v", err), err)
	}

	token, err := GenerateToken(api.conf, NewAdminClaims(api.conf, api.creds.Email()))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}

// take counts the attempt before credentials are checked; a successful login resets the count.
// It fails open when the throttle store errors.
func (api *authApi) take(ctx context.Context, key string) bool {
	ok, err := api.limiter.Take(ctx, key)
	if err != nil {
		api.logger.Warn(fmt.Sprintf("counting login attempt: %v", err), err)
		return true
	}
	return ok
}

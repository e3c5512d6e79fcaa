package admin

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/findmytutor/findmytutor/core"
)

// Role is the only role a session token can carry.
const Role = "admin"

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is the single fixed admin identity.
// There is one admin, no per-user storage and no rotation besides redeploying the config.
type Credentials struct {
	email        string
	passwordHash []byte
}

// NewCredentials uses conf.Admin.PasswordHash when set and otherwise hashes conf.Admin.Password.
func NewCredentials(conf *core.Config) (*Credentials, error) {
	creds := &Credentials{email: core.CleanString(conf.Admin.Email, true)}
	if conf.Admin.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(conf.Admin.PasswordHash)); err != nil {
			return nil, errors.Wrap(err, "parsing admin password hash")
		}
		creds.passwordHash = []byte(conf.Admin.PasswordHash)
		return creds, nil
	}
	hash, err := HashPassword(conf.Admin.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hashing admin password")
	}
	creds.passwordHash = hash
	return creds, nil
}

func (c *Credentials) Email() string {
	return c.email
}

// Check returns ErrInvalidCredentials unless email and pwd match the admin identity.
func (c *Credentials) Check(email, pwd string) error {
	pwdErr := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(pwd))
	if core.CleanString(email, true) != c.email || pwdErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func HashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
}

// LoginRequest is the admin-login body. An empty password is not a validation error:
// it fails Check like any other wrong password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

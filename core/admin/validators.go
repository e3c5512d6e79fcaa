package admin

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/findmytutor/findmytutor/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim       = .7
	pwdEmailSimTag  = "pwdtoosim"
	pwdEmailSimText = "password cannot be similar to the admin email"
)

// NewPassword is a candidate admin password, checked before it is hashed into the config.
type NewPassword struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (np *NewPassword) Validate(validate *validator.Validate) error {
	np.Email = core.CleanString(np.Email, true)
	return validate.Struct(np)
}

// InitValidators registers the password policy. Call after core.InitValidators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(passwordStructValidation, NewPassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdEmailSimTag, pwdEmailSimText)
}

// passwordStructValidation applies the password policy:
// - minLen: 8
// - no whitespace
// - not all numeric
// - not similar to the admin email
func passwordStructValidation(sl validator.StructLevel) {
	np, ok := sl.Current().Interface().(NewPassword)
	if !ok || np.Password == "" {
		return
	}
	pwd := np.Password
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	local := np.Email
	if i := strings.Index(local, "@"); i > 0 {
		local = local[:i]
	}
	for _, attr := range []string{np.Email, local} {
		if similarity(strings.ToLower(pwd), attr) >= pwdMaxSim {
			reportErr(pwdEmailSimTag)
			return
		}
	}
}

func similarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
}

package auth

import (
	"regexp"
	"strings"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/core/common/validation"
)

var loginCodePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	LoginCode string `json:"loginCode"`
	Password  string `json:"password"`
}

// RenewTokenDTO lets clients send the token in the body instead of the header.
type RenewTokenDTO struct {
	Token string `json:"token"`
}

func (d *LoginDTO) Normalize() {
	d.LoginCode = strings.TrimSpace(d.LoginCode)
}

// Validate checks required fields and their format.
func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("loginCode", d.LoginCode).
		Required().
		MaxLength(64).
		Matches(loginCodePattern, "loginCode may only contain letters, digits, '.', '_' and '-'")
	v.Field("password", d.Password).
		Required().
		MaxLength(72)
	return v.Validate()
}

type LoginResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserView `json:"user"`
}

type CheckResponse struct {
	Success bool     `json:"success"`
	User    UserView `json:"user"`
}

type RenewTokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

// Package forms validates and submits the login, register and add-place
// forms. Submissions are one-shot: on failure the user edits and resubmits.
package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"travelapp/internal/api"
	"travelapp/internal/logging"
	"travelapp/internal/nav"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError is an input problem caught before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Outcome is what a form shows after a submit.
type Outcome struct {
	Message string
	Err     error
	// Redirect is where to go next, empty to stay.
	Redirect nav.Route
}

// OK reports whether the submit succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// AuthAPI is the part of the API client the auth forms use.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, email, password string) error
}

// SessionLogin stores a credential.
type SessionLogin interface {
	Login(token string) error
}

func trimAll(vals ...*string) {
	for _, v := range vals {
		*v = strings.TrimSpace(*v)
	}
}

// firstInvalid maps validator output to a ValidationError using msgs, keyed
// by struct field name. Unknown fields fall back to def.
func firstInvalid(err error, msgs map[string]string, def string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: def}
	}
	f := verrs[0]
	msg, ok := msgs[f.StructField()+"."+f.Tag()]
	if !ok {
		msg, ok = msgs[f.StructField()]
	}
	if !ok {
		msg = def
	}
	return &ValidationError{Field: f.StructField(), Message: msg}
}

// LoginForm is the login page input.
type LoginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

const (
	MsgLoginOK       = "Login berhasil!"
	MsgLoginFailed   = "Login gagal. Periksa username dan password Anda."
	MsgLoginRequired = "Username dan password wajib diisi."
)

// Submit validates, exchanges credentials for a token and stores it.
func (f LoginForm) Submit(ctx context.Context, client AuthAPI, sess SessionLogin) Outcome {
	log := logging.For(logging.CategorySession)
	trimAll(&f.Username)

	if err := validate.Struct(f); err != nil {
		verr := firstInvalid(err, nil, MsgLoginRequired)
		return Outcome{Message: verr.Error(), Err: verr}
	}

	token, err := client.Login(ctx, f.Username, f.Password)
	if err != nil {
		log.Warn("login failed", zap.String("user", f.Username), zap.Error(err))
		return Outcome{Message: api.Message(err, MsgLoginFailed), Err: err}
	}
	if err := sess.Login(token); err != nil {
		log.Warn("server issued an unusable credential", zap.Error(err))
		return Outcome{Message: MsgLoginFailed, Err: err}
	}
	return Outcome{Message: MsgLoginOK, Redirect: nav.RouteHome}
}

// RegisterForm is the registration page input.
type RegisterForm struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

const (
	MsgRegisterOK     = "Registrasi berhasil! Silakan login."
	MsgRegisterFailed = "Registrasi gagal. Coba lagi."
)

var registerMessages = map[string]string{
	"Username":          "Username wajib diisi.",
	"Email.required":    "Email wajib diisi.",
	"Email.email":       "Format email tidak valid.",
	"Password.required": "Password wajib diisi.",
	"Password.min":      "Password minimal 6 karakter.",
}

// Submit validates and creates the account.
func (f RegisterForm) Submit(ctx context.Context, client AuthAPI) Outcome {
	trimAll(&f.Username, &f.Email)

	if err := validate.Struct(f); err != nil {
		verr := firstInvalid(err, registerMessages, MsgRegisterFailed)
		return Outcome{Message: verr.Error(), Err: verr}
	}

	if err := client.Register(ctx, f.Username, f.Email, f.Password); err != nil {
		logging.For(logging.CategorySession).Warn("registration failed", zap.String("user", f.Username), zap.Error(err))
		return Outcome{Message: api.Message(err, MsgRegisterFailed), Err: err}
	}
	return Outcome{Message: MsgRegisterOK, Redirect: nav.RouteLogin}
}

package auth

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/jrsteele09/farm-admin/sessions"
	"github.com/jrsteele09/farm-admin/users"
	"github.com/rs/zerolog/log"
)

// State is a step of a login flow.
type State string

const (
	StatePhoneEntry       State = "phone-entry"
	StateOTPSent          State = "otp-sent"
	StateCredentialsEntry State = "credentials-entry"
	StateVerified         State = "verified"
)

// SessionWriter receives the session once a login verifies.
type SessionWriter interface {
	Save(tokens sessions.Tokens, role string) error
}

// OTPFlow drives phone login: phone-entry -> otp-sent -> verified.
// The lock is never held across an API call; busy marks a request in flight instead.
type OTPFlow struct {
	client  *Client
	session SessionWriter
	role    users.RoleType

	lock     sync.Mutex
	busy     bool
	state    State
	phone    string
	debugOTP string
	errs     map[string]error
	user     *users.User
}

func NewOTPFlow(client *Client, session SessionWriter, role users.RoleType) *OTPFlow {
	return &OTPFlow{
		client:  client,
		session: session,
		role:    role,
		state:   StatePhoneEntry,
		errs:    make(map[string]error),
	}
}

// begin claims the flow for one request made from step want.
func (f *OTPFlow) begin(op string, want State) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.busy {
		return fmt.Errorf("[OTPFlow %s]: %w", op, LoginBusyErr)
	}
	if f.state != want {
		return fmt.Errorf("[OTPFlow %s] %s: %w", op, f.state, WrongStepErr)
	}
	f.busy = true
	clear(f.errs)
	return nil
}

// fail puts the flow back on step with err against field. A Reset that ran during the call,
// such as one triggered by the session being cleared, does not swallow the failure.
func (f *OTPFlow) fail(step State, phone, field string, err error) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.busy = false
	f.state = step
	f.phone = phone
	f.errs[field] = err
	return &FieldError{Field: field, Err: err}
}

// SubmitPhone requests a code for raw. An unusable number is reported against the phone field
// and no request is made.
func (f *OTPFlow) SubmitPhone(ctx context.Context, raw string) error {
	if err := f.begin("SubmitPhone", StatePhoneEntry); err != nil {
		return err
	}

	phone, err := NormalizePhone(raw)
	if err != nil {
		return f.fail(StatePhoneEntry, raw, FieldPhone, err)
	}

	resp, err := f.client.SendOTP(ctx, SendOTPRequest{PhoneNumber: phone, Role: f.role})
	if err != nil {
		return f.fail(StatePhoneEntry, phone, FieldPhone, err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.busy = false
	f.phone = phone
	f.debugOTP = resp.DebugOTP()
	f.state = StateOTPSent
	log.Info().Str("phone", phone).Msg("OTP requested")
	return nil
}

// SubmitCode verifies code for the current phone. On success the session is saved and the
// flow is verified; on failure the flow stays in otp-sent with the error on the code field.
func (f *OTPFlow) SubmitCode(ctx context.Context, code string) error {
	if err := f.begin("SubmitCode", StateOTPSent); err != nil {
		return err
	}
	f.lock.Lock()
	phone := f.phone
	f.lock.Unlock()

	code, err := ValidateCode(code)
	if err != nil {
		return f.fail(StateOTPSent, phone, FieldCode, err)
	}

	resp, err := f.client.VerifyOTP(ctx, VerifyOTPRequest{PhoneNumber: phone, Code: code, Role: f.role})
	if err != nil {
		return f.fail(StateOTPSent, phone, FieldCode, err)
	}

	if err := f.session.Save(resp.Token.Tokens(), string(resp.User.Role)); err != nil {
		f.fail(StateOTPSent, phone, FieldForm, err)
		return fmt.Errorf("[OTPFlow SubmitCode] saving session: %w", err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.busy = false
	f.user = &resp.User
	f.state = StateVerified
	f.debugOTP = ""
	log.Info().Str("user", resp.User.ID).Str("role", string(resp.User.Role)).Msg("OTP login verified")
	return nil
}

// ChangeNumber returns to phone entry keeping the typed number. The code already issued is
// left to expire on the server.
func (f *OTPFlow) ChangeNumber() {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.state != StateOTPSent {
		return
	}
	f.state = StatePhoneEntry
	f.debugOTP = ""
	clear(f.errs)
}

// Reset starts the flow over, used after logout.
func (f *OTPFlow) Reset() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.state = StatePhoneEntry
	f.phone = ""
	f.debugOTP = ""
	f.user = nil
	clear(f.errs)
}

func (f *OTPFlow) State() State {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.state
}

func (f *OTPFlow) Phone() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.phone
}

// DebugOTP is the code echoed by a development API while in otp-sent.
func (f *OTPFlow) DebugOTP() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.debugOTP
}

// FieldError returns the last error reported against field, or nil.
func (f *OTPFlow) FieldError(field string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.errs[field]
}

// User is the verified user, nil until verified.
func (f *OTPFlow) User() *users.User {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.user
}

// PasswordFlow drives username and password login: credentials-entry -> verified.
type PasswordFlow struct {
	client  *Client
	session SessionWriter

	lock     sync.Mutex
	busy     bool
	state    State
	username string
	errs     map[string]error
	user     *users.User
}

func NewPasswordFlow(client *Client, session SessionWriter) *PasswordFlow {
	return &PasswordFlow{
		client:  client,
		session: session,
		state:   StateCredentialsEntry,
		errs:    make(map[string]error),
	}
}

// Submit logs in. A failure leaves the flow in credentials-entry with the server's message
// against the form and the entered username kept as typed.
func (f *PasswordFlow) Submit(ctx context.Context, username, password string) error {
	f.lock.Lock()
	switch {
	case f.busy:
		f.lock.Unlock()
		return fmt.Errorf("[PasswordFlow Submit]: %w", LoginBusyErr)
	case f.state != StateCredentialsEntry:
		state := f.state
		f.lock.Unlock()
		return fmt.Errorf("[PasswordFlow Submit] %s: %w", state, WrongStepErr)
	}
	f.busy = true
	clear(f.errs)
	f.username = username
	f.lock.Unlock()

	resp, err := f.client.Login(ctx, PasswordLogin{Username: username, Password: password})
	if err != nil {
		field, cause := FieldForm, err
		var fieldErr *FieldError
		if apperrors.As(err, &fieldErr) {
			field, cause = fieldErr.Field, fieldErr.Err
		}
		f.fail(username, field, cause)
		return err
	}

	if err := f.session.Save(resp.Token.Tokens(), string(resp.User.Role)); err != nil {
		f.fail(username, FieldForm, err)
		return fmt.Errorf("[PasswordFlow Submit] saving session: %w", err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.busy = false
	f.user = &resp.User
	f.state = StateVerified
	log.Info().Str("user", resp.User.ID).Msg("Password login verified")
	return nil
}

// fail records a failed attempt. A 401 on the login call clears the session and so resets
// the flow while the call is still running; the failure is reported regardless.
func (f *PasswordFlow) fail(username, field string, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.busy = false
	f.state = StateCredentialsEntry
	f.username = username
	f.errs[field] = err
}

func (f *PasswordFlow) Reset() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.state = StateCredentialsEntry
	f.username = ""
	f.user = nil
	clear(f.errs)
}

func (f *PasswordFlow) State() State {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.state
}

func (f *PasswordFlow) Username() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.username
}

func (f *PasswordFlow) FieldError(field string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.errs[field]
}

func (f *PasswordFlow) User() *users.User {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.user
}

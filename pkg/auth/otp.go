package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Registration flow states: FORM collects credentials, OTP_PENDING waits for
// the 6-digit code, VERIFIED is terminal.
type FlowState int

const (
	StateForm FlowState = iota
	StateOTPPending
	StateVerified
)

func (s FlowState) String() string {
	switch s {
	case StateOTPPending:
		return "OTP_PENDING"
	case StateVerified:
		return "VERIFIED"
	default:
		return "FORM"
	}
}

// ResendCooldown is how long the resend action stays disabled after a code
// is sent.
const ResendCooldown = 60 * time.Second

var (
	ErrWrongState      = errors.New("action not allowed in current state")
	ErrCooldownActive  = errors.New("resend cooldown has not elapsed")
	ErrCodeShape       = errors.New("code must be 6 digits")
	ErrCodeRejected    = errors.New("code rejected")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already taken")
	errMissingField    = errors.New("all fields are required")
	errEmailShape      = errors.New("malformed email address")
	errPhoneShape      = errors.New("malformed phone number")
	errWeakPassword    = errors.New("password needs at least 8 characters with letters and digits")
	digitsOnly         = regexp.MustCompile(`^[0-9]{6}$`)
	phoneShape         = regexp.MustCompile(`^\+?[0-9]{9,12}$`)
	emailShape         = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	hasLetter          = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit           = regexp.MustCompile(`[0-9]`)
)

// Form carries the credentials collected before the OTP step. Validation
// here is advisory, the authoritative checks run on registration.
type Form struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (f *Form) validate() error {
	if f.Username == "" || f.Email == "" || f.Phone == "" || f.Password == "" {
		return errMissingField
	}
	if !emailShape.MatchString(f.Email) {
		return errEmailShape
	}
	if !phoneShape.MatchString(f.Phone) {
		return errPhoneShape
	}
	if len(f.Password) < 8 || !hasLetter.MatchString(f.Password) || !hasDigit.MatchString(f.Password) {
		return errWeakPassword
	}
	return nil
}

// AvailabilityChecker answers whether credentials are still free to use.
type AvailabilityChecker interface {
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

// CodeSender delivers a one-time code to the given phone number.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// CodeStore keeps issued codes until they expire or verify.
type CodeStore interface {
	Put(ctx context.Context, challengeId, code string, ttl time.Duration) error
	Verify(ctx context.Context, challengeId, code string) (bool, error)
}

// Flow is one registration attempt. It does not survive a restart, a new
// flow starts over from FORM.
type Flow struct {
	availability AvailabilityChecker
	sender       CodeSender
	codes        CodeStore
	now          func() time.Time

	state       FlowState
	form        Form
	challengeId string
	codeInput   string
	resendAt    time.Time
}

func NewFlow(availability AvailabilityChecker, sender CodeSender, codes CodeStore) *Flow {
	return &Flow{
		availability: availability,
		sender:       sender,
		codes:        codes,
		now:          time.Now,
	}
}

func (f *Flow) State() FlowState {
	return f.state
}

func (f *Flow) Form() Form {
	return f.form
}

func (f *Flow) ChallengeId() string {
	return f.challengeId
}

// SubmitForm validates the credentials, checks availability and on success
// issues a code and moves to OTP_PENDING. The form is retained either way.
func (f *Flow) SubmitForm(ctx context.Context, form Form) error {
	if f.state != StateForm {
		return ErrWrongState
	}
	f.form = form
	if err := form.validate(); err != nil {
		return err
	}
	free, err := f.availability.UsernameAvailable(ctx, form.Username)
	if err != nil {
		return err
	}
	if !free {
		return ErrUsernameTaken
	}
	free, err = f.availability.EmailAvailable(ctx, form.Email)
	if err != nil {
		return err
	}
	if !free {
		return ErrEmailTaken
	}
	if err := f.issueCode(ctx); err != nil {
		return err
	}
	f.state = StateOTPPending
	return nil
}

func (f *Flow) issueCode(ctx context.Context) error {
	code, err := GenerateCode()
	if err != nil {
		return err
	}
	f.challengeId = uuid.NewString()
	if err := f.codes.Put(ctx, f.challengeId, code, 2*ResendCooldown); err != nil {
		return err
	}
	if err := f.sender.SendCode(ctx, f.form.Phone, code); err != nil {
		return err
	}
	f.resendAt = f.now().Add(ResendCooldown)
	return nil
}

// ResendIn is the number of whole seconds until resending is allowed again,
// 0 once the cooldown elapsed.
func (f *Flow) ResendIn() int {
	left := f.resendAt.Sub(f.now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Resend issues a fresh code, only allowed in OTP_PENDING with an elapsed
// cooldown.
func (f *Flow) Resend(ctx context.Context) error {
	if f.state != StateOTPPending {
		return ErrWrongState
	}
	if f.ResendIn() > 0 {
		return ErrCooldownActive
	}
	return f.issueCode(ctx)
}

// SetCodeInput stores the code the user typed so far.
func (f *Flow) SetCodeInput(code string) {
	f.codeInput = code
}

func (f *Flow) CodeInput() string {
	return f.codeInput
}

// SubmitCode verifies the entered code. Success moves to VERIFIED. Failure
// stays in OTP_PENDING and clears only the code input, form fields are
// untouched and submission stays enabled.
func (f *Flow) SubmitCode(ctx context.Context) error {
	if f.state != StateOTPPending {
		return ErrWrongState
	}
	code := f.codeInput
	f.codeInput = ""
	if !digitsOnly.MatchString(code) {
		return ErrCodeShape
	}
	ok, err := f.codes.Verify(ctx, f.challengeId, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeRejected
	}
	f.state = StateVerified
	return nil
}

// Back returns from OTP_PENDING to FORM without clearing previously entered
// form fields.
func (f *Flow) Back() error {
	if f.state != StateOTPPending {
		return ErrWrongState
	}
	f.state = StateForm
	return nil
}

// GenerateCode returns a random 6-digit code with leading zeros preserved.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NormalizePhone strips spaces and dashes before shape checks and delivery.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, phone)
}

// Package account resolves a pair of credentials against the user store:
// an exact match logs in, an unknown pair registers, and a pair matching
// an existing record on only one field is rejected.
package account

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pcastro/parley/internal/store"
)

// Outcome describes how a Login call resolved.
type Outcome int

const (
	// OutcomeLoggedIn means both fields matched an existing user.
	OutcomeLoggedIn Outcome = iota
	// OutcomeRegistered means no field matched and a user was created.
	OutcomeRegistered
	// OutcomeAmbiguous means exactly one field matched an existing user;
	// nothing was created.
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoggedIn:
		return "logged_in"
	case OutcomeRegistered:
		return "registered"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// FieldError reports a malformed credential field before any store access.
type FieldError struct {
	Field   string // "email" or "phone"
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("account: %s: %s", e.Field, e.Message)
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidateEmail checks a trimmed email address.
func ValidateEmail(email string) error {
	if email == "" {
		return &FieldError{Field: "email", Message: "required"}
	}
	if !emailPattern.MatchString(email) {
		return &FieldError{Field: "email", Message: "not a valid email address"}
	}
	return nil
}

// ValidatePhone checks a trimmed phone number.
func ValidatePhone(phone string) error {
	if phone == "" {
		return &FieldError{Field: "phone", Message: "required"}
	}
	if !phonePattern.MatchString(phone) {
		return &FieldError{Field: "phone", Message: "not a valid phone number"}
	}
	return nil
}

// Result carries the resolved user and how the resolution happened. User is
// nil for OutcomeAmbiguous.
type Result struct {
	Outcome Outcome
	User    *store.User
}

// Service performs credential resolution against a store.
type Service struct {
	store store.Store
	log   *zap.Logger
}

func NewService(s store.Store, log *zap.Logger) *Service {
	return &Service{store: s, log: log.Named("account")}
}

// Login resolves the email/phone pair. Both fields are trimmed and
// validated first; a validation failure never touches the store.
//
// Exact match on both fields logs in. A match on only one field is
// ambiguous and creates nothing. No match registers a new user with a
// generated id. The caller is responsible for persisting the returned id.
func (s *Service) Login(ctx context.Context, email, phone string) (*Result, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}

	u, err := s.store.FindUserByEmailAndPhone(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("account: lookup: %w", err)
	}
	if u != nil {
		s.log.Info("logged in", zap.String("user_id", u.ID))
		return &Result{Outcome: OutcomeLoggedIn, User: u}, nil
	}

	byEmail, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("account: lookup: %w", err)
	}
	byPhone, err := s.store.FindUserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("account: lookup: %w", err)
	}
	if byEmail != nil || byPhone != nil {
		s.log.Warn("ambiguous credentials",
			zap.Bool("email_taken", byEmail != nil),
			zap.Bool("phone_taken", byPhone != nil))
		return &Result{Outcome: OutcomeAmbiguous}, nil
	}

	u = &store.User{ID: uuid.New().String(), Email: email, PhoneNumber: phone}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("account: register: %w", err)
	}
	s.log.Info("registered", zap.String("user_id", u.ID))
	return &Result{Outcome: OutcomeRegistered, User: u}, nil
}

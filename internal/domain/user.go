package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxUsernameLen      = 120
	maxEmailLen         = 120
	maxPersonNameLen    = 120
	maxContactNumberLen = 20
	maxPasswordHashLen  = 128
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_.-]*$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// User is a person who can log into Ilifu and access project resources.
type User struct {
	ID            int64
	Enabled       bool
	Username      string
	Email         string
	PasswordHash  *string
	PublicKey     *string
	FirstName     string
	LastName      string
	ContactNumber *string
	Institution   string
	CreatedAt     time.Time
	LastUpdated   *time.Time
}

// Validate checks required fields and column widths.
func (u *User) Validate() error {
	var problems []string

	switch {
	case u.Username == "":
		problems = append(problems, "username is required")
	case len(u.Username) > maxUsernameLen:
		problems = append(problems, fmt.Sprintf("username exceeds %d characters", maxUsernameLen))
	case !usernamePattern.MatchString(u.Username):
		problems = append(problems, fmt.Sprintf("username %q must be lowercase letters, digits, '_', '.' or '-'", u.Username))
	}

	switch {
	case u.Email == "":
		problems = append(problems, "email is required")
	case len(u.Email) > maxEmailLen:
		problems = append(problems, fmt.Sprintf("email exceeds %d characters", maxEmailLen))
	case !emailPattern.MatchString(u.Email):
		problems = append(problems, fmt.Sprintf("email %q is not an address", u.Email))
	}

	if u.FirstName == "" {
		problems = append(problems, "first name is required")
	} else if len(u.FirstName) > maxPersonNameLen {
		problems = append(problems, fmt.Sprintf("first name exceeds %d characters", maxPersonNameLen))
	}
	if u.LastName == "" {
		problems = append(problems, "last name is required")
	} else if len(u.LastName) > maxPersonNameLen {
		problems = append(problems, fmt.Sprintf("last name exceeds %d characters", maxPersonNameLen))
	}
	if u.Institution == "" {
		problems = append(problems, "institution is required")
	}
	if u.ContactNumber != nil && len(*u.ContactNumber) > maxContactNumberLen {
		problems = append(problems, fmt.Sprintf("contact number exceeds %d characters", maxContactNumberLen))
	}
	if u.PasswordHash != nil && len(*u.PasswordHash) > maxPasswordHashLen {
		problems = append(problems, fmt.Sprintf("password hash exceeds %d characters", maxPasswordHashLen))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid user: %s", strings.Join(problems, "; "))
	}
	return nil
}

// FullName returns "First Last".
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasPassword reports whether a password hash is set.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

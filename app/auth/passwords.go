package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cabwad/hris/app/web/persistence"
)

// HashPassword makes bcrypt hash of the password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with bcrypt hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewUserParams describes an account to create
type NewUserParams struct {
	Email     string
	Birthdate string // YYYY-MM-DD
	FirstName string
	LastName  string
	Admin     bool
	Superuser bool
}

// NewUser makes an active user with derived username and initial password.
// Username is the lower-cased last name without spaces followed by the birth year,
// the initial password is the birthdate in YYYY-MM-DD form.
func NewUser(p NewUserParams) (persistence.User, error) {
	if strings.TrimSpace(p.Email) == "" {
		return persistence.User{}, errors.New("user must have an email address")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return persistence.User{}, errors.New("user must have a last name")
	}
	if p.Birthdate == "" {
		return persistence.User{}, errors.New("user must have a birthdate")
	}
	bd, err := time.Parse(time.DateOnly, p.Birthdate)
	if err != nil {
		return persistence.User{}, fmt.Errorf("invalid birthdate %q, expected YYYY-MM-DD: %w", p.Birthdate, err)
	}

	hash, err := HashPassword(DefaultPassword(bd))
	if err != nil {
		return persistence.User{}, err
	}

	return persistence.User{
		Username:     Username(p.LastName, bd),
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		Birthdate:    bd.Format(time.DateOnly),
		IsActive:     true,
		IsStaff:      p.Superuser,
		IsAdmin:      p.Admin || p.Superuser,
		IsSuperuser:  p.Superuser,
		PasswordHash: hash,
	}, nil
}

// Username derives account name from last name and birth year
func Username(lastName string, birthdate time.Time) string {
	name := strings.ToLower(strings.Join(strings.Fields(lastName), ""))
	return fmt.Sprintf("%s%d", name, birthdate.Year())
}

// DefaultPassword is the initial and reset password of an account
func DefaultPassword(birthdate time.Time) string {
	return birthdate.Format(time.DateOnly)
}

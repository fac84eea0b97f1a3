// Package user provides the places account model.
package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/id"
)

// PasswordCost is the bcrypt cost used for stored password hashes.
const PasswordCost = 12

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var (
	// ErrInvalidEmail indicates an email that does not parse as an address.
	ErrInvalidEmail = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid input.", map[string]string{"Field": "email"})
	// ErrEmptyName indicates a missing display name.
	ErrEmptyName = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid input.", map[string]string{"Field": "name"})
	// ErrShortPassword indicates a password below MinPasswordLength.
	ErrShortPassword = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid input.", map[string]string{"Field": "password"})
	// ErrLongPassword indicates a password above MaxPasswordBytes.
	ErrLongPassword = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid input.", map[string]string{"Field": "password"})

	emailCaser = cases.Lower(language.Und)
)

// User is an account that owns places.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	ImageRef     string
	// PlaceIDs is the ordered set of places this user created.
	PlaceIDs  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput describes a signup request.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	ImageRef string
}

// Hasher turns a plaintext password into a stored hash.
type Hasher func(password string) (string, error)

// BcryptHasher returns a Hasher using the given bcrypt cost.
func BcryptHasher(cost int) Hasher {
	return func(password string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return "", err
		}
		return string(hash), nil
	}
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail trims and lower-cases an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return emailCaser.String(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address such as a@b.com.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizeCreateUserInput trims and validates signup input.
func NormalizeCreateUserInput(input CreateUserInput) (CreateUserInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = NormalizeEmail(input.Email)
	input.ImageRef = strings.TrimSpace(input.ImageRef)
	if err := ValidateEmail(input.Email); err != nil {
		return CreateUserInput{}, err
	}
	if input.Name == "" {
		return CreateUserInput{}, ErrEmptyName
	}
	if len([]rune(input.Password)) < MinPasswordLength {
		return CreateUserInput{}, ErrShortPassword
	}
	if len(input.Password) > MaxPasswordBytes {
		return CreateUserInput{}, ErrLongPassword
	}
	return input, nil
}

// CreateUser builds a new account from validated input. The returned user
// has an empty place set.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error), hash Hasher) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if hash == nil {
		hash = BcryptHasher(PasswordCost)
	}

	normalized, err := NormalizeCreateUserInput(input)
	if err != nil {
		return User{}, err
	}

	passwordHash, err := hash(normalized.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:           userID,
		Email:        normalized.Email,
		Name:         normalized.Name,
		PasswordHash: passwordHash,
		ImageRef:     normalized.ImageRef,
		PlaceIDs:     []string{},
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

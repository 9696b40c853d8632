package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUser() *User {
	return &User{
		Username:    "jhorrell",
		Email:       "jasper@idia.ac.za",
		FirstName:   "Jasper",
		LastName:    "Horrell",
		Institution: "IDIA",
	}
}

func TestUserValidate_Valid(t *testing.T) {
	assert.NoError(t, validUser().Validate())
}

func TestUserValidate_CollectsAllProblems(t *testing.T) {
	u := &User{}
	err := u.Validate()
	require.Error(t, err)
	for _, want := range []string{"username", "email", "first name", "last name", "institution"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestUserValidate_UsernameShape(t *testing.T) {
	u := validUser()
	u.Username = "Jasper H"
	err := u.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lowercase")
}

func TestUserValidate_Email(t *testing.T) {
	u := validUser()
	u.Email = "not-an-email"
	assert.Error(t, u.Validate())
}

func TestUserValidate_ContactNumberWidth(t *testing.T) {
	u := validUser()
	long := strings.Repeat("1", 21)
	u.ContactNumber = &long
	err := u.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contact number")
}

func TestUserFullNameAndPassword(t *testing.T) {
	u := validUser()
	assert.Equal(t, "Jasper Horrell", u.FullName())
	assert.False(t, u.HasPassword())
	hash := "$pbkdf2-sha256$40000$abc$def"
	u.PasswordHash = &hash
	assert.True(t, u.HasPassword())
}

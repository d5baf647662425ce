package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("karim@souk.dz"))
	assert.False(t, IsValidEmail("karim@souk"))
	assert.False(t, IsValidEmail("ka rim@souk.dz"))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("poulet2024!"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nodigits!!"))
	assert.False(t, IsValidPassword("nospecial123"))
}

func TestIsValidFullname(t *testing.T) {
	assert.True(t, IsValidFullname("Aïcha Ben-Saïd"))
	assert.True(t, IsValidFullname("O'Neil"))
	assert.True(t, IsValidFullname("Amina B."))
	assert.False(t, IsValidFullname(""))
	assert.False(t, IsValidFullname("R2D2"))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("0550 12 34 56"))
	assert.True(t, IsValidPhone("+213550123456"))
	assert.False(t, IsValidPhone("12345"))
}

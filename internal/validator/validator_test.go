package validator

import (
	"testing"

	"github.com/mabego/firebase-login/internal/assert"
)

func TestMatchesEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "Valid", email: "alice@example.com", want: true},
		{name: "Subdomain", email: "bob.smith+tag@mail.example.co.uk", want: true},
		{name: "Missing at", email: "alice.example.com", want: false},
		{name: "Missing domain", email: "alice@", want: false},
		{name: "Empty", email: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Matches(tt.email, EmailRX), tt.want)
		})
	}
}

func TestValidator(t *testing.T) {
	var v Validator
	assert.Equal(t, v.Valid(), true)

	v.CheckField(NotBlank("   "), "email", "This field cannot be blank")
	v.CheckField(MaxChars("abc", 2), "email", "second message is ignored")
	v.CheckField(MaxChars("abc", 2), "address1", "This field is too long")

	assert.Equal(t, v.Valid(), false)
	assert.Equal(t, v.FieldErrors["email"], "This field cannot be blank")
	assert.Equal(t, v.FieldErrors["address1"], "This field is too long")

	v = Validator{}
	v.AddNonFieldError("Something went wrong")
	assert.Equal(t, v.Valid(), false)
}

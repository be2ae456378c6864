package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewUser_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		nu      NewUser
		wantErr bool
	}{
		{name: "valid", nu: NewUser{Name: "Ama", Email: "AMA@test.cd ", Roles: []string{RoleStudent}}},
		{name: "no roles", nu: NewUser{Name: "Ama", Email: "ama@test.cd"}},
		{name: "blank name", nu: NewUser{Name: "   ", Email: "ama@test.cd"}, wantErr: true},
		{name: "bad email", nu: NewUser{Name: "Ama", Email: "lol"}, wantErr: true},
		{name: "unknown role", nu: NewUser{Name: "Ama", Email: "ama@test.cd", Roles: []string{"king:"}}, wantErr: true},
		{name: "role prefix only", nu: NewUser{Name: "Ama", Email: "ama@test.cd", Roles: []string{"admin"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewUser_Validate_cleans(t *testing.T) {
	nu := NewUser{Name: "  Ama  Kofi ", Email: " AMA@Test.cd"}
	assert.NoError(t, nu.Validate(newValidator()))
	assert.Equal(t, "ama@test.cd", nu.Email)
}

func TestUser_roles(t *testing.T) {
	usr := User{Roles: []string{RoleInstructor}}
	assert.True(t, usr.IsInstructor())
	assert.False(t, usr.IsAdmin())
	assert.False(t, usr.IsStudent())
}

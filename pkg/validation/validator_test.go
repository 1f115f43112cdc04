package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signup struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Role     string `json:"role" validate:"omitempty,role"`
	Status   string `json:"status" validate:"omitempty,accountstatus"`
	Photo    string `json:"profilePhoto" validate:"omitempty,photo"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestFirstReportsJSONFieldNames(t *testing.T) {
	v := newValidator()

	cases := []struct {
		name string
		in   signup
		want FieldError
	}{
		{"missing name", signup{Email: "a@x.com", Password: "longenough"}, FieldError{"name", "is required"}},
		{"short name", signup{Name: "A", Email: "a@x.com", Password: "longenough"}, FieldError{"name", "must be at least 2 characters long"}},
		{"bad email", signup{Name: "Al", Email: "nope", Password: "longenough"}, FieldError{"email", "must be a valid email"}},
		{"short password", signup{Name: "Al", Email: "a@x.com", Password: "short"}, FieldError{"password", "must be at least 8 characters long"}},
		{"long password", signup{Name: "Al", Email: "a@x.com", Password: strings.Repeat("p", 80)}, FieldError{"password", "must be at most 72 bytes long"}},
		{"multibyte password over 72 bytes", signup{Name: "Al", Email: "a@x.com", Password: strings.Repeat("é", 40)}, FieldError{"password", "must be at most 72 bytes long"}},
		{"bad role", signup{Name: "Al", Email: "a@x.com", Password: "longenough", Role: "root"}, FieldError{"role", "must be one of: admin, user"}},
		{"bad status", signup{Name: "Al", Email: "a@x.com", Password: "longenough", Status: "gone"}, FieldError{"status", "must be one of: active, inactive"}},
		{"bad photo", signup{Name: "Al", Email: "a@x.com", Password: "longenough", Photo: "nope"}, FieldError{"profilePhoto", "must be a data URI or URL"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.in)
			assert.Equal(t, tc.want, First(err))
		})
	}
}

func TestValidPayloadPasses(t *testing.T) {
	v := newValidator()
	err := v.Struct(signup{Name: "Al", Email: "a@x.com", Password: "longenough", Role: "admin", Photo: "https://cdn.example.com/a.png"})
	assert.NoError(t, err)

	err = v.Struct(signup{Name: "Al", Email: "a@x.com", Password: strings.Repeat("p", MaxPasswordBytes)})
	assert.NoError(t, err)
}

func TestFirstDecodeErrors(t *testing.T) {
	var dst signup
	err := json.Unmarshal([]byte(`{"name":`), &dst)
	assert.Equal(t, "body must be valid JSON", First(err).Error())

	err = json.Unmarshal([]byte(`{"name": 12}`), &dst)
	assert.Equal(t, FieldError{"name", "has an invalid type"}, First(err))
}

package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAccountCreated(t *testing.T) {
	data := ToMap(EmailData{
		Name:        "Ada <Admin>",
		Email:       "ada@x.com",
		Role:        "admin",
		CompanyName: "Acme",
		LoginURL:    "https://app.example.com/login",
	})

	subject, text, html, err := Render(AccountCreated, data)
	require.NoError(t, err)

	assert.Equal(t, "Your Acme account is ready", subject)
	assert.Contains(t, text, "Hi Ada <Admin>,")
	assert.Contains(t, text, "https://app.example.com/login")
	assert.Contains(t, html, "Ada &lt;Admin&gt;")
	assert.NotContains(t, text, "Need help?")
}

func TestRenderDefaults(t *testing.T) {
	subject, text, _, err := Render(AccountCreated, ToMap(EmailData{Email: "a@x.com", AppName: "Users"}))
	require.NoError(t, err)

	assert.Equal(t, "Your account is ready", subject)
	assert.Contains(t, text, "Hi there,")
	assert.Contains(t, text, "the user role")
	assert.Contains(t, text, "Users")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}

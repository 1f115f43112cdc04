package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joshuaoni/user-management-dashboard/pkg/mailer/templates"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, to, subject, text, html string) error {
	return m.Called(to, subject, text, html).Error(0)
}

func TestDeliverTemplate(t *testing.T) {
	s := new(mockSender)
	s.On("Send", "ada@x.com", mock.MatchedBy(func(subj string) bool { return subj != "" }),
		mock.MatchedBy(func(text string) bool { return strings.Contains(text, "Ada") }),
		mock.Anything).Return(nil)

	job := EmailJob{
		To:       "ada@x.com",
		Template: templates.AccountCreated,
		Data:     templates.ToMap(templates.EmailData{Name: "Ada", Email: "ada@x.com", CompanyName: "Acme"}),
	}
	require.NoError(t, Deliver(context.Background(), s, job))
	s.AssertExpectations(t)
}

func TestDeliverPlain(t *testing.T) {
	s := new(mockSender)
	s.On("Send", "a@x.com", "Hi", "Body", "").Return(errors.New("mailgun down"))

	err := Deliver(context.Background(), s, EmailJob{To: "a@x.com", Subject: "Hi", Text: "Body"})
	assert.EqualError(t, err, "mailgun down")
}

func TestDeliverRejectsInvalidJobs(t *testing.T) {
	s := new(mockSender)

	assert.ErrorIs(t, Deliver(context.Background(), s, EmailJob{Template: "account_created"}), ErrInvalidJob)
	assert.ErrorIs(t, Deliver(context.Background(), s, EmailJob{To: "a@x.com"}), ErrInvalidJob)
	assert.ErrorIs(t, Deliver(context.Background(), s, EmailJob{To: "a@x.com", Template: "missing"}), ErrInvalidJob)
	s.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

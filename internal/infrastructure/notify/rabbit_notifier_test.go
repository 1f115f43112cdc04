package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/pkg/mailer"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishJSON(ctx context.Context, body any) error {
	return m.Called(body).Error(0)
}

func TestAccountCreatedPublishesJob(t *testing.T) {
	pub := new(mockPublisher)
	var job mailer.EmailJob
	pub.On("PublishJSON", mock.AnythingOfType("mailer.EmailJob")).
		Run(func(args mock.Arguments) { job = args.Get(0).(mailer.EmailJob) }).
		Return(nil)

	n := NewRabbitNotifier(pub, Branding{AppName: "Users", CompanyName: "Acme", LoginURL: "https://app/login"})
	err := n.AccountCreated(context.Background(), &entity.Account{
		Name: "Ada", Email: "ada@x.com", Role: entity.RoleAdmin, PasswordHash: "hash",
	})
	require.NoError(t, err)
	pub.AssertExpectations(t)

	assert.Equal(t, "ada@x.com", job.To)
	assert.Equal(t, "account_created", job.Template)
	assert.True(t, job.Valid())
	assert.Equal(t, "Ada", job.Data["Name"])
	assert.Equal(t, "admin", job.Data["Role"])
	assert.Equal(t, "https://app/login", job.Data["LoginURL"])
	assert.NotContains(t, job.Data, "PasswordHash")
}

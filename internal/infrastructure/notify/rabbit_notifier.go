package notify

import (
	"context"

	"github.com/joshuaoni/user-management-dashboard/internal/application"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/pkg/mailer"
	"github.com/joshuaoni/user-management-dashboard/pkg/mailer/templates"
)

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Branding struct {
	AppName     string
	CompanyName string
	LoginURL    string
}

// RabbitNotifier queues provisioning emails for the email worker.
type RabbitNotifier struct {
	pub   Publisher
	brand Branding
}

func NewRabbitNotifier(pub Publisher, brand Branding) *RabbitNotifier {
	return &RabbitNotifier{pub: pub, brand: brand}
}

func (n *RabbitNotifier) AccountCreated(ctx context.Context, a *entity.Account) error {
	job := mailer.EmailJob{
		To:       a.Email,
		Template: templates.AccountCreated,
		Data: templates.ToMap(templates.EmailData{
			Name:        a.Name,
			Email:       a.Email,
			Role:        string(a.Role),
			AppName:     n.brand.AppName,
			CompanyName: n.brand.CompanyName,
			LoginURL:    n.brand.LoginURL,
		}),
	}
	return n.pub.PublishJSON(ctx, job)
}

var _ application.Notifier = (*RabbitNotifier)(nil)

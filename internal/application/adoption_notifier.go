package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/config"
	"github.com/petlovers/petlovers-api/internal/domain/entity"
	repo "github.com/petlovers/petlovers-api/internal/domain/repository"
	"github.com/petlovers/petlovers-api/pkg/mailer"
	mailtpl "github.com/petlovers/petlovers-api/pkg/mailer/templates"
)

// ErrUndeliverable marks an event that will never produce an email no matter
// how often it is redelivered.
var ErrUndeliverable = errors.New("adoption event undeliverable")

// MailSender is satisfied by *mailer.Mailgun.
type MailSender interface {
	SendJob(ctx context.Context, job mailer.EmailJob) error
}

// AdoptionNotifier turns adoption events into adopter emails.
type AdoptionNotifier struct {
	Users  repo.UserRepository
	Mail   MailSender
	Config *config.Config
	Logger *logrus.Logger
}

func NewAdoptionNotifier(users repo.UserRepository, mail MailSender, cfg *config.Config, logger *logrus.Logger) *AdoptionNotifier {
	return &AdoptionNotifier{Users: users, Mail: mail, Config: cfg, Logger: logger}
}

func adoptionTemplate(action string) (string, bool) {
	switch entity.PetAction(action) {
	case entity.ActionMarkAsPending:
		return mailtpl.AdoptionPending, true
	case entity.ActionConfirmAdoption:
		return mailtpl.AdoptionConfirmed, true
	case entity.ActionCancelAdoption:
		return mailtpl.AdoptionCancelled, true
	}
	return "", false
}

// BuildJob resolves the adopter and prepares the email for evt. ok is false
// for events that do not notify anyone.
func (n *AdoptionNotifier) BuildJob(ctx context.Context, evt AdoptionEvent) (job mailer.EmailJob, ok bool, err error) {
	tpl, notify := adoptionTemplate(evt.Action)
	if !notify || evt.AdopterID == "" {
		return mailer.EmailJob{}, false, nil
	}
	u, err := n.Users.GetByID(ctx, evt.AdopterID)
	if errors.Is(err, repo.ErrNotFound) {
		return mailer.EmailJob{}, false, fmt.Errorf("%w: adopter %s not found", ErrUndeliverable, evt.AdopterID)
	}
	if err != nil {
		return mailer.EmailJob{}, false, err
	}
	data := mailtpl.NewAdoptionData(n.Config, tpl, u.FullName(), u.Email, evt.PetID, evt.PetName,
		mailtpl.WithStatus(evt.To),
		mailtpl.WithTime(evt.OccurredAt),
	)
	return mailer.EmailJob{To: u.Email, Template: tpl, Data: data}, true, nil
}

// Handle sends the email for evt, if any. Errors wrapping ErrUndeliverable
// should not be retried.
func (n *AdoptionNotifier) Handle(ctx context.Context, evt AdoptionEvent) error {
	job, ok, err := n.BuildJob(ctx, evt)
	if err != nil || !ok {
		return err
	}
	if _, _, _, err := job.Render(); err != nil {
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	if err := n.Mail.SendJob(ctx, job); err != nil {
		return err
	}
	n.log().WithFields(logrus.Fields{
		"pet_id":   evt.PetID,
		"action":   evt.Action,
		"template": job.Template,
	}).Info("adoption email sent")
	return nil
}

func (n *AdoptionNotifier) log() *logrus.Logger {
	if n.Logger == nil {
		return logrus.StandardLogger()
	}
	return n.Logger
}

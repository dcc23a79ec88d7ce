package templates

import (
	"strings"
	"time"

	"github.com/petlovers/petlovers-api/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithStatus(status string) Option { return func(d *EmailData) { d.Status = status } }

// WithPetLink points PetURL at the pet's page under cfg.PetURL.
func WithPetLink(base, petID string) Option {
	return func(d *EmailData) {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" || petID == "" {
			return
		}
		d.PetURL = base + "/" + petID
	}
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email, petName string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,
		SupportURL:  cfg.SupportURL,

		PetName: petName,
		PetURL:  cfg.PetURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewAdoptionData(cfg *config.Config, typ, name, email, petID, petName string, opts ...Option) map[string]any {
	opts = append([]Option{WithPetLink(cfg.PetURL, petID)}, opts...)
	return ToMap(NewBaseEmailData(cfg, typ, name, email, petName, opts...))
}

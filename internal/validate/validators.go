// Package validate normalizes raw candidate answers field by field.
package validate

import (
	"context"
	"net"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/stack"
)

const (
	DefaultDomainThreshold  = 92.0
	DefaultCountryThreshold = 90.0
)

// Options tunes the validators.
type Options struct {
	// DefaultRegion is the ISO region used for phone numbers without a leading "+".
	DefaultRegion string
	// StrictEmail enables the MX lookup. A failed lookup only warns.
	StrictEmail      bool
	DomainThreshold  float64
	CountryThreshold float64
	StackThreshold   float64
}

// Place is a geocoder hit.
type Place struct {
	City        string
	Town        string
	Village     string
	Country     string
	CountryCode string
}

// Geocoder resolves a free-form place. countryCode restricts the search when
// not empty. A nil place with a nil error means nothing was found.
type Geocoder interface {
	Geocode(ctx context.Context, query, countryCode string) (*Place, error)
}

// MXResolver is satisfied by *net.Resolver.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Validators holds the shared state of all field validators.
type Validators struct {
	opts       Options
	geocoder   Geocoder
	mx         MXResolver
	classifier *stack.Classifier
	validate   *validator.Validate
	logger     *zap.Logger
}

// New builds the validators. geocoder may be nil, in which case locations are
// only checked against the country list. mx may be nil to use net.DefaultResolver.
func New(opts Options, geocoder Geocoder, mx MXResolver, logger *zap.Logger) *Validators {
	if opts.DomainThreshold <= 0 {
		opts.DomainThreshold = DefaultDomainThreshold
	}
	if opts.CountryThreshold <= 0 {
		opts.CountryThreshold = DefaultCountryThreshold
	}
	if mx == nil {
		mx = net.DefaultResolver
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Validators{
		opts:       opts,
		geocoder:   geocoder,
		mx:         mx,
		classifier: stack.NewClassifier(opts.StackThreshold),
		validate:   validator.New(),
		logger:     logger,
	}
}

// Classifier exposes the tech stack classifier used by TechStack.
func (v *Validators) Classifier() *stack.Classifier {
	return v.classifier
}

// Result describes a successful or declined Apply.
type Result struct {
	// Declined is set when the consent answer was not affirmative.
	Declined bool
	// Warning is a non-fatal note for the candidate.
	Warning string
}

// Apply validates text for field and stores the normalized value on rec.
// rec is left untouched when an error is returned or consent is declined.
func (v *Validators) Apply(ctx context.Context, rec *candidate.Record, field candidate.Field, text string) (Result, error) {
	var (
		res Result
		err error
	)

	switch field {
	case candidate.FieldConsent:
		if !Consent(text) {
			res.Declined = true
			return res, nil
		}
		rec.Consent = true
	case candidate.FieldFullName:
		var name string
		if name, err = FullName(text); err == nil {
			rec.FullName = name
		}
	case candidate.FieldEmail:
		var email string
		if email, res.Warning, err = v.Email(ctx, text); err == nil {
			rec.Email = email
		}
	case candidate.FieldPhone:
		var phone string
		if phone, err = v.Phone(text); err == nil {
			rec.Phone = phone
		}
	case candidate.FieldYearsExperience:
		var years float64
		if years, err = Years(text); err == nil {
			rec.YearsExperience = &years
		}
	case candidate.FieldDesiredPositions:
		var positions []string
		if positions, err = Positions(text); err == nil {
			rec.DesiredPositions = positions
		}
	case candidate.FieldCurrentLocation:
		var location string
		if location, err = v.Location(ctx, text); err == nil {
			rec.CurrentLocation = location
		}
	case candidate.FieldTechStack:
		var ts *candidate.TechStack
		if ts, err = v.TechStack(text); err == nil {
			rec.TechStack = ts
		}
	default:
		err = failf(field, ReasonSemantic, "unknown field %q", field)
	}

	if err != nil {
		f, _ := AsFailure(err)
		fields := []zap.Field{zap.String("field", string(field)), zap.Error(err)}
		if f != nil {
			fields = append(fields, zap.String("reason", string(f.Reason)))
		}
		v.logger.Debug("field rejected", fields...)
		return res, err
	}

	v.logger.Debug("field accepted", zap.String("field", string(field)))
	return res, nil
}

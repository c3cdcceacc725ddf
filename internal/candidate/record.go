package candidate

import "strings"

const DefaultLanguage = "en"

// Field names a collectable part of the candidate record.
type Field string

const (
	FieldNone             Field = ""
	FieldConsent          Field = "consent"
	FieldFullName         Field = "full_name"
	FieldEmail            Field = "email"
	FieldPhone            Field = "phone"
	FieldYearsExperience  Field = "years_experience"
	FieldDesiredPositions Field = "desired_positions"
	FieldCurrentLocation  Field = "current_location"
	FieldTechStack        Field = "tech_stack"
)

// Fields is the fixed order in which the assistant asks for data.
var Fields = []Field{
	FieldConsent,
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldYearsExperience,
	FieldDesiredPositions,
	FieldCurrentLocation,
	FieldTechStack,
}

// TechStack groups recognized technologies by category.
type TechStack struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	Databases  []string `json:"databases"`
	Tools      []string `json:"tools"`
}

// Empty reports whether every category is empty.
func (s *TechStack) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.Languages) == 0 && len(s.Frameworks) == 0 && len(s.Databases) == 0 && len(s.Tools) == 0
}

// Topics returns all technologies in category order: languages, frameworks, databases, tools.
func (s *TechStack) Topics() []string {
	if s == nil {
		return nil
	}
	topics := make([]string, 0, len(s.Languages)+len(s.Frameworks)+len(s.Databases)+len(s.Tools))
	topics = append(topics, s.Languages...)
	topics = append(topics, s.Frameworks...)
	topics = append(topics, s.Databases...)
	topics = append(topics, s.Tools...)
	return topics
}

// Record holds everything collected from one candidate.
type Record struct {
	Consent          bool       `json:"consent"`
	FullName         string     `json:"full_name,omitempty"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	YearsExperience  *float64   `json:"years_experience,omitempty"`
	DesiredPositions []string   `json:"desired_positions"`
	CurrentLocation  string     `json:"current_location,omitempty"`
	TechStack        *TechStack `json:"tech_stack,omitempty"`
	Language         string     `json:"language"`
}

// New returns an empty record with the default language.
func New() *Record {
	return &Record{
		DesiredPositions: []string{},
		Language:         DefaultLanguage,
	}
}

// IsSet applies the per-field presence rule.
func (r *Record) IsSet(f Field) bool {
	if r == nil {
		return false
	}

	switch f {
	case FieldConsent:
		return r.Consent
	case FieldFullName:
		return strings.TrimSpace(r.FullName) != ""
	case FieldEmail:
		return strings.TrimSpace(r.Email) != ""
	case FieldPhone:
		return strings.TrimSpace(r.Phone) != ""
	case FieldYearsExperience:
		return r.YearsExperience != nil
	case FieldDesiredPositions:
		return len(r.DesiredPositions) > 0
	case FieldCurrentLocation:
		return strings.TrimSpace(r.CurrentLocation) != ""
	case FieldTechStack:
		return !r.TechStack.Empty()
	default:
		return false
	}
}

// Missing lists unset fields in asking order.
func (r *Record) Missing() []Field {
	var missing []Field
	for _, f := range Fields {
		if !r.IsSet(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

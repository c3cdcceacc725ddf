package validate

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/spigell/talentscout/internal/candidate"
)

// Phone parses a number and formats it as E.164. The default region only
// applies to numbers without a leading "+".
func (v *Validators) Phone(text string) (string, error) {
	text = strings.TrimSpace(text)

	region := strings.ToUpper(v.opts.DefaultRegion)
	if strings.HasPrefix(text, "+") {
		region = ""
	}

	num, err := phonenumbers.Parse(text, region)
	if err != nil {
		return "", fail(candidate.FieldPhone, ReasonFormat, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fail(candidate.FieldPhone, ReasonSemantic, errors.New("invalid phone number"))
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

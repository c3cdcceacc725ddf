package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/biter777/countries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/fuzzy"
)

// cases.Caser keeps state, so one is built per call.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

type countryIndex struct {
	names []string
	lower []string
}

func newCountryIndex() countryIndex {
	var idx countryIndex
	for _, c := range countries.All() {
		name := c.String()
		if name == "" || !c.IsValid() {
			continue
		}
		idx.names = append(idx.names, name)
		idx.lower = append(idx.lower, strings.ToLower(name))
	}
	return idx
}

var countryList = newCountryIndex()

// correctCountry returns the closest official country name, or "" when
// nothing clears the threshold.
func (v *Validators) correctCountry(raw string) string {
	m, ok := fuzzy.ExtractOne(strings.ToLower(strings.TrimSpace(raw)), countryList.lower, fuzzy.WRatio, v.opts.CountryThreshold)
	if !ok {
		return ""
	}
	return countryList.names[m.Index]
}

func locationFailure(reason Reason, hint string, err error) *Failure {
	return &Failure{Field: candidate.FieldCurrentLocation, Reason: reason, Hint: hint, Err: err}
}

// Location validates "City, Country". The country is looked up by name or ISO
// code, falling back to a fuzzy match, and the city is geocoded within it. The result is "City, Official Country Name".
func (v *Validators) Location(ctx context.Context, text string) (string, error) {
	s := strings.Join(strings.Fields(text), " ")
	rawCity, rawCountry, found := strings.Cut(s, ",")
	if !found {
		return "", locationFailure(ReasonFormat, "Please provide location as 'City, Country'.", errors.New("missing comma"))
	}
	rawCity, rawCountry = strings.TrimSpace(rawCity), strings.TrimSpace(rawCountry)
	if rawCity == "" || rawCountry == "" {
		return "", locationFailure(ReasonFormat, "Please provide both city and country.", errors.New("empty city or country"))
	}

	country := countries.ByName(rawCountry)
	if !country.IsValid() {
		if fixed := v.correctCountry(rawCountry); fixed != "" {
			country = countries.ByName(fixed)
		}
	}
	if country == countries.Unknown || !country.IsValid() {
		return "", locationFailure(ReasonSemantic, "Country not recognized, please correct spelling.", fmt.Errorf("unknown country %q", rawCountry))
	}
	countryName, countryCode := country.String(), country.Alpha2()

	if v.geocoder == nil {
		return fmt.Sprintf("%s, %s", title(rawCity), countryName), nil
	}

	place, err := v.geocoder.Geocode(ctx, rawCity, strings.ToLower(countryCode))
	if err != nil {
		return "", locationFailure(ReasonExternal, "", fmt.Errorf("geocode %q in %s: %w", rawCity, countryCode, err))
	}

	if place == nil {
		return "", v.suggestCountry(ctx, rawCity, countryName)
	}

	if !sameCountry(place, countryName, countryCode) {
		return "", locationFailure(ReasonSemantic, fmt.Sprintf("City not found in %s. Please re-enter.", countryName),
			fmt.Errorf("geocoder returned country %q (%s)", place.Country, place.CountryCode))
	}

	city := firstNonEmpty(place.City, place.Town, place.Village, rawCity)
	return fmt.Sprintf("%s, %s", title(city), countryName), nil
}

// suggestCountry probes the city without a country filter to build a hint.
func (v *Validators) suggestCountry(ctx context.Context, rawCity, countryName string) *Failure {
	notFound := fmt.Errorf("city %q not found in %s", rawCity, countryName)

	probe, err := v.geocoder.Geocode(ctx, rawCity, "")
	if err != nil {
		return locationFailure(ReasonExternal, "", errors.Join(notFound, err))
	}
	if probe != nil && probe.Country != "" {
		hint := fmt.Sprintf("City not found in %s. Did you mean %s, %s?", countryName, title(rawCity), probe.Country)
		return locationFailure(ReasonSemantic, hint, notFound)
	}

	return locationFailure(ReasonSemantic, fmt.Sprintf("City '%s' not found in %s. Please re-enter.", rawCity, countryName), notFound)
}

func sameCountry(p *Place, name, code string) bool {
	if p.Country != "" && strings.EqualFold(p.Country, name) {
		return true
	}
	return p.CountryCode != "" && strings.EqualFold(p.CountryCode, code)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/fuzzy"
)

const msgUnverifiedEmail = "Email looks valid but DNS/MX couldn't be verified. Proceeding; this will be re-checked later."

var commonDomains = []string{
	"gmail.com", "yahoo.com", "outlook.com", "hotmail.com", "icloud.com",
	"proton.me", "protonmail.com", "live.com", "aol.com", "pm.me",
}

var (
	emailShape = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	invisibles = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "", "\u00a0", " ")
)

func cleanEmail(s string) string {
	s = strings.TrimSpace(invisibles.Replace(norm.NFKC.String(s)))
	if m := emailShape.FindString(s); m != "" {
		return m
	}
	return s
}

func (v *Validators) fixDomain(addr string) string {
	i := strings.LastIndex(addr, "@")
	if i < 0 {
		return addr
	}
	local, domain := addr[:i], strings.ToLower(addr[i+1:])

	m, ok := fuzzy.ExtractOne(domain, commonDomains, fuzzy.WRatio, v.opts.DomainThreshold)
	if !ok {
		return addr
	}
	return local + "@" + m.Choice
}

// Email cleans and validates an address. Typos in well-known provider
// domains are corrected. In strict mode a failed MX lookup yields a warning
// instead of an error.
func (v *Validators) Email(ctx context.Context, text string) (string, string, error) {
	addr := v.fixDomain(cleanEmail(text))

	if err := v.validate.Var(addr, "required,email"); err != nil {
		return "", "", fail(candidate.FieldEmail, ReasonFormat, err)
	}

	i := strings.LastIndex(addr, "@")
	normalized := addr[:i] + "@" + strings.ToLower(addr[i+1:])

	if !v.opts.StrictEmail {
		return normalized, "", nil
	}

	if err := v.checkMX(ctx, normalized[i+1:]); err != nil {
		v.logger.Debug("email deliverability check failed", zap.String("field", string(candidate.FieldEmail)), zap.Error(err))
		return normalized, msgUnverifiedEmail, nil
	}
	return normalized, "", nil
}

func (v *Validators) checkMX(ctx context.Context, domain string) error {
	records, err := v.mx.LookupMX(ctx, domain)
	if err != nil {
		return fmt.Errorf("lookup mx for %s: %w", domain, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no mx records for %s", domain)
	}
	return nil
}

package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomplumbs/landing-page/internal/config"
)

const (
	defaultFromName     = "Tom Plumb Plumbing"
	defaultPackagePrice = "$1,950"
)

// Profile is the business identity rendered into both emails.
type Profile struct {
	Name         string
	Phone        string
	License      string
	Website      string
	PackagePrice string
	Location     *time.Location
}

// ProfileFromConfig builds the profile from startup configuration.
func ProfileFromConfig(cfg *config.Config) (Profile, error) {
	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, cfg.BusinessTimezone, err)
	}
	name := cfg.BusinessName
	if name == "" {
		name = defaultFromName
	}
	return Profile{
		Name:         name,
		Phone:        cfg.BusinessPhone,
		License:      cfg.BusinessLicense,
		Website:      cfg.BusinessWebsite,
		PackagePrice: defaultPackagePrice,
		Location:     loc,
	}, nil
}

// PhoneDigits is the business phone without punctuation, for tel: links.
func (p Profile) PhoneDigits() string {
	var b strings.Builder
	for _, r := range p.Phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WebsiteLabel is the website host, shown as link text.
func (p Profile) WebsiteLabel() string {
	u, err := url.Parse(p.Website)
	if err != nil || u.Host == "" {
		return p.Website
	}
	return strings.TrimPrefix(u.Host, "www.")
}

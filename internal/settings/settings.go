package settings

import (
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	KeyAPIURL           = "API_URL"
	KeySiteName         = "SITE_NAME"
	KeyAnalyticsKey     = "ANALYTICS_KEY"
	KeySupportEmail     = "SUPPORT_EMAIL"
	KeyNullTestimonials = "USE_NULL_TESTIMONIALS_SERVICE"
	KeyMinRating        = "TESTIMONIALS_MIN_RATING"
	KeyTestimonialLimit = "TESTIMONIALS_LIMIT"
)

// requiredKeys must be present with a non-empty value.
var requiredKeys = []string{KeyAPIURL}

// Settings is the typed site configuration. Values are copied out of the
// raw map at load time and never change afterwards.
type Settings struct {
	APIURL                     string `env:"API_URL"`
	SiteName                   string `env:"SITE_NAME" envDefault:"SmartHotel360"`
	AnalyticsKey               string `env:"ANALYTICS_KEY"`
	SupportEmail               string `env:"SUPPORT_EMAIL" envDefault:"support@smarthotel360.com"`
	UseNullTestimonialsService string `env:"USE_NULL_TESTIMONIALS_SERVICE"`
	TestimonialsMinRating      int    `env:"TESTIMONIALS_MIN_RATING" envDefault:"4"`
	TestimonialsLimit          int    `env:"TESTIMONIALS_LIMIT" envDefault:"6"`
}

// Public is the part of Settings that may be embedded in rendered pages.
type Public struct {
	APIURL       string `json:"apiUrl"`
	SiteName     string `json:"siteName"`
	AnalyticsKey string `json:"analyticsKey,omitempty"`
	SupportEmail string `json:"supportEmail"`
}

// Load validates raw and binds it into Settings. raw is never mutated.
func Load(raw map[string]string) (Settings, error) {
	for _, key := range requiredKeys {
		if strings.TrimSpace(raw[key]) == "" {
			return Settings{}, &ConfigurationError{Key: key}
		}
	}

	environment := make(map[string]string, len(raw))
	for k, v := range raw {
		environment[k] = v
	}

	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: environment}); err != nil {
		return Settings{}, &ConfigurationError{Err: err}
	}

	s.APIURL = strings.TrimRight(strings.TrimSpace(s.APIURL), "/")

	if s.TestimonialsMinRating < 0 {
		return Settings{}, &ConfigurationError{Key: KeyMinRating, Err: errNegative}
	}
	if s.TestimonialsLimit < 0 {
		return Settings{}, &ConfigurationError{Key: KeyTestimonialLimit, Err: errNegative}
	}

	return s, nil
}

// TestimonialsDisabled reports whether the null testimonial provider was
// requested. Any non-empty value counts, matching the deployed convention.
func (s Settings) TestimonialsDisabled() bool {
	return s.UseNullTestimonialsService != ""
}

// Public returns the page-safe subset of s.
func (s Settings) Public() Public {
	return Public{
		APIURL:       s.APIURL,
		SiteName:     s.SiteName,
		AnalyticsKey: s.AnalyticsKey,
		SupportEmail: s.SupportEmail,
	}
}

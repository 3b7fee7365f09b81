package config

import (
	"errors"
	"strings"
)

// CloudFrontConfig locates the signing key and shapes the issued cookies.
type CloudFrontConfig struct {
	KeyBucket string `env:"CLOUDFRONT_KEY_S3_BUCKET,required"`
	KeyObject string `env:"CLOUDFRONT_KEY_S3_KEY,required"`
	KeyID     string `env:"CLOUDFRONT_KEY_ID,required"`

	// CookieDomain is the CDN hostname the cookies are scoped to.
	CookieDomain string `env:"CLOUDFRONT_COOKIE_DOMAIN,required"`

	// CookieValidityDays is how long issued cookies stay valid. Zero yields
	// cookies that are already expired.
	CookieValidityDays int `env:"CLOUDFRONT_COOKIE_VALIDITY_DAYS" envDefault:"1"`
}

// Sanitize trims whitespace from identifiers.
func (c *CloudFrontConfig) Sanitize() {
	c.KeyBucket = strings.TrimSpace(c.KeyBucket)
	c.KeyObject = strings.TrimSpace(c.KeyObject)
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.CookieDomain = strings.TrimSpace(c.CookieDomain)
}

// Validate checks the section is usable.
func (c *CloudFrontConfig) Validate() error {
	var errs []error
	if c.KeyBucket == "" {
		errs = append(errs, errors.New("CLOUDFRONT_KEY_S3_BUCKET is required"))
	}
	if c.KeyObject == "" {
		errs = append(errs, errors.New("CLOUDFRONT_KEY_S3_KEY is required"))
	}
	if c.KeyID == "" {
		errs = append(errs, errors.New("CLOUDFRONT_KEY_ID is required"))
	}
	if c.CookieDomain == "" {
		errs = append(errs, errors.New("CLOUDFRONT_COOKIE_DOMAIN is required"))
	}
	if strings.ContainsAny(c.CookieDomain, "/:") {
		errs = append(errs, errors.New("CLOUDFRONT_COOKIE_DOMAIN must be a bare hostname"))
	}
	if c.CookieValidityDays < 0 {
		errs = append(errs, errors.New("CLOUDFRONT_COOKIE_VALIDITY_DAYS must not be negative"))
	}
	return errors.Join(errs...)
}

package validation

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// SourceURLValidator validates the URLs users subscribe to
type SourceURLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewSourceURLValidator creates a validator with secure defaults
func NewSourceURLValidator() *SourceURLValidator {
	return &SourceURLValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveSourceURLValidator allows localhost and private addresses
func NewPermissiveSourceURLValidator() *SourceURLValidator {
	return &SourceURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates a source URL and returns the normalized version
func (v *SourceURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	// Bare hosts default to https; any other explicit scheme is rejected below.
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}

	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}

	if err := v.validateHostSecurity(parsedURL); err != nil {
		return "", err
	}

	if err := v.validatePathSecurity(parsedURL); err != nil {
		return "", err
	}

	return parsedURL.String(), nil
}

func (v *SourceURLValidator) validateHostSecurity(u *url.URL) error {
	hostname := strings.ToLower(u.Hostname())
	addr, err := netip.ParseAddr(hostname)
	isIP := err == nil

	if !v.AllowLocalhost && (isLocalhost(hostname) || isIP && addr.IsLoopback()) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if !v.AllowPrivateIPs && isIP && isPrivateAddr(addr) {
		return fmt.Errorf("private IP addresses are not permitted")
	}
	if isSuspiciousHostname(hostname) {
		return fmt.Errorf("suspicious hostname detected")
	}
	return nil
}

func (v *SourceURLValidator) validatePathSecurity(parsedURL *url.URL) error {
	if strings.Contains(parsedURL.Path, "..") {
		return fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	query := strings.ToLower(parsedURL.RawQuery)
	if strings.Contains(query, "<script") || strings.Contains(query, "javascript:") {
		return fmt.Errorf("suspicious query parameters detected")
	}
	return nil
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" || strings.HasSuffix(hostname, ".localhost")
}

// isPrivateAddr covers RFC 1918, unique local, link-local and loopback.
func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLoopback()
}

var placeholderHosts = map[string]bool{
	"example.com":     true,
	"test.com":        true,
	"localhost.com":   true,
	"0.0.0.0":         true,
	"255.255.255.255": true,
}

func isSuspiciousHostname(hostname string) bool {
	hostname = strings.ToLower(hostname)
	if placeholderHosts[hostname] {
		return true
	}
	if _, err := netip.ParseAddr(hostname); err == nil {
		return false
	}

	// Four long hex labels are an address in disguise.
	labels := strings.Split(hostname, ".")
	if len(labels) != 4 {
		return false
	}
	for _, l := range labels {
		if len(l) <= 6 || strings.Trim(l, "0123456789abcdef") != "" {
			return false
		}
	}
	return true
}

// ValidateMediaURI checks a media URI taken from a feed item before it is
// handed to a player. Only absolute http(s) URIs are playable.
func ValidateMediaURI(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("media URI cannot be empty")
	}
	if len(raw) > 4096 {
		return "", fmt.Errorf("media URI too long")
	}
	if strings.ContainsAny(raw, "<>\"'` ") {
		return "", fmt.Errorf("media URI contains invalid characters")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid media URI: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported media URI scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("media URI must have a host")
	}
	return u.String(), nil
}

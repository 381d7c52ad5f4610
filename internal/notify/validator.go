package notify

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrInvalidScheme is returned when the URL scheme is not HTTPS.
	ErrInvalidScheme = errors.New("only HTTPS allowed")
	// ErrPrivateIP is returned when the URL resolves to a private address.
	ErrPrivateIP = errors.New("private IP addresses not allowed")
	// ErrLocalhostBlocked is returned for localhost and .local hosts.
	ErrLocalhostBlocked = errors.New("localhost not allowed")
	// ErrInvalidPort is returned for non-standard ports.
	ErrInvalidPort = errors.New("only port 443 allowed")
	// ErrInvalidURL is returned when URL parsing fails.
	ErrInvalidURL = errors.New("invalid URL format")
	// ErrEmptyHost is returned when the URL has no host.
	ErrEmptyHost = errors.New("URL must have a host")
)

// blockedCIDRs covers private, loopback, and link-local ranges.
var blockedCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var blockedNetworks []*net.IPNet

func init() {
	for _, cidr := range blockedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err == nil {
			blockedNetworks = append(blockedNetworks, network)
		}
	}
}

// ValidateTargetURL checks an endpoint URL before registration.
// HTTPS only, no loopback or private targets, standard port only.
func ValidateTargetURL(targetURL string) error {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return ErrInvalidURL
	}

	if parsed.Scheme != "https" {
		return ErrInvalidScheme
	}

	host := parsed.Hostname()
	if host == "" {
		return ErrEmptyHost
	}

	if isLocalhostHostname(host) {
		return ErrLocalhostBlocked
	}

	// Resolution failures are allowed through; a dead domain fails at
	// delivery time with its own audit trail.
	if ips, err := net.LookupIP(host); err == nil {
		for _, ip := range ips {
			if isBlockedIP(ip) {
				return ErrPrivateIP
			}
		}
	}

	if port := parsed.Port(); port != "" && port != "443" {
		return ErrInvalidPort
	}

	return nil
}

func isLocalhostHostname(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" ||
		strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local") ||
		host == "127.0.0.1" ||
		host == "::1"
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ExtractHost returns only the host part of a URL for logging.
// Full target URLs may carry secrets in path or query.
func ExtractHost(targetURL string) string {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "(invalid)"
	}
	return parsed.Host
}

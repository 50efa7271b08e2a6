package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrPrivateAddress = errors.New("destination resolves to a private or reserved address")

var blockedCIDRs = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",  // CGNAT
	"169.254.0.0/16", // link-local, cloud metadata
	"fc00::/7",       // IPv6 ULA
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, parsed, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("bad CIDR %q: %v", cidr, err))
		}
		out = append(out, parsed)
	}
	return out
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, cidr := range blockedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// resolvePublic resolves host and fails if any address is private.
func resolvePublic(ctx context.Context, host string) ([]string, error) {
	ips, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup %s: %w", host, err)
	}
	for _, ipStr := range ips {
		if ip := net.ParseIP(ipStr); ip != nil && isPrivateIP(ip) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrPrivateAddress, host, ipStr)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("dns lookup %s: no addresses", host)
	}
	return ips, nil
}

// checkScheme accepts absolute http(s) URLs with a host.
func checkScheme(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported scheme %q (only http/https allowed)", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, errors.New("missing hostname in url")
	}
	return parsed, nil
}

// ValidateTarget is the pre-flight check browser strategies run before
// launching: http(s) only and no private destinations. Plain HTTP fetches rely
// on the guarded dialer instead, which also covers redirects and rebinding.
func ValidateTarget(ctx context.Context, rawURL string) (*url.URL, error) {
	parsed, err := checkScheme(rawURL)
	if err != nil {
		return nil, err
	}
	if _, err := resolvePublic(ctx, parsed.Hostname()); err != nil {
		return nil, err
	}
	return parsed, nil
}

// newTransport returns the transport shared by the HTTP and challenge
// strategies. With blockPrivate the dialer validates resolved addresses and
// connects to the checked IP directly.
func newTransport(blockPrivate bool) *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if !blockPrivate {
		return t
	}
	t.Proxy = nil
	t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("guarded dialer: invalid address %q: %w", addr, err)
		}
		ips, err := resolvePublic(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("guarded dialer: %w", err)
		}
		return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0], port))
	}
	return t
}

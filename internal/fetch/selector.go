package fetch

import (
	"net/url"
	"strings"
)

var (
	jsHeavyDomains = []string{
		"facebook.com", "instagram.com", "linkedin.com", "twitter.com", "x.com",
		"tiktok.com", "youtube.com", "pinterest.com", "snapchat.com",
	}
	challengeDomains = []string{
		"shopify.com", "wordpress.com", "wix.com", "squarespace.com",
	}
	botBlockingDomains = []string{
		"amazon.com", "ebay.com", "mercadolivre.com", "aliexpress.com",
		"booking.com", "airbnb.com",
	}
)

// SelectMethod picks a strategy from the URL's hostname. Matching is a
// case-insensitive substring test, so "www.amazon.com.br" counts as amazon.com
// and so does any host that merely contains "x.com". Unparsable URLs get
// MethodHTTP.
func SelectMethod(rawURL string) Method {
	u, err := url.Parse(rawURL)
	if err != nil {
		return MethodHTTP
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return MethodHTTP
	}

	switch {
	case containsAny(host, jsHeavyDomains):
		return MethodPlaywright
	case containsAny(host, challengeDomains):
		return MethodChallenge
	case containsAny(host, botBlockingDomains):
		return MethodRod
	default:
		return MethodHTTP
	}
}

func containsAny(host string, domains []string) bool {
	for _, d := range domains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}

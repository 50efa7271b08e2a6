package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Method names a fetch strategy. The set is closed: every switch over Method
// handles all members.
type Method int

const (
	MethodAuto Method = iota
	MethodHTTP
	MethodChallenge
	// MethodPlaywright drives Chromium through playwright-go; picked for
	// JS-heavy social sites.
	MethodPlaywright
	// MethodRod drives Chromium through go-rod with stealth patches; picked
	// for retailers that block bots.
	MethodRod
)

var methodNames = [...]string{
	MethodAuto:       "auto",
	MethodHTTP:       "http",
	MethodChallenge:  "challenge",
	MethodPlaywright: "playwright",
	MethodRod:        "rod",
}

// legacy names accepted on the wire
var methodAliases = map[string]Method{
	"axios":        MethodHTTP,
	"cloudscraper": MethodChallenge,
	"puppeteer":    MethodRod,
}

var (
	ErrUnknownMethod     = errors.New("unknown extraction method")
	ErrChallengeUnsolved = errors.New("challenge page not solved")
	ErrClientShell       = errors.New("page is an unrendered client-side shell")
)

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod maps a wire name to a Method. Empty means auto.
func ParseMethod(name string) (Method, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return MethodAuto, nil
	}
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	if m, ok := methodAliases[name]; ok {
		return m, nil
	}
	return MethodAuto, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Page is the raw outcome of a successful fetch.
type Page struct {
	Markup   string
	FinalURL string
}

// Strategy retrieves the markup behind a URL. Implementations return an error
// for every failure and never panic outward.
type Strategy interface {
	Method() Method
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

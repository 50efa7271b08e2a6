package fetch

import (
	"context"
	"fmt"
)

// blockedResources are the request types browser strategies refuse to load.
var blockedResources = map[string]bool{
	"image":      true,
	"stylesheet": true,
	"font":       true,
	"media":      true,
}

// preflight runs before a browser is launched so bad targets fail cheaply.
func (s settings) preflight(ctx context.Context, rawURL string) error {
	if s.blockPrivate {
		if _, err := ValidateTarget(ctx, rawURL); err != nil {
			return fmt.Errorf("refusing %s: %w", rawURL, err)
		}
		return nil
	}
	_, err := checkScheme(rawURL)
	return err
}

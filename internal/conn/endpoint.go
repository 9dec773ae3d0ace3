package conn

import (
	"fmt"
	"net/url"
	"strings"
)

// UsernamePlaceholder is replaced by the current username in endpoint templates.
const UsernamePlaceholder = "{username}"

// Endpoint resolves a server URL template for username, e.g.
// "wss://example.com/hangouts?username={username}".
func Endpoint(template, username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("endpoint: empty username")
	}
	raw := strings.ReplaceAll(template, UsernamePlaceholder, url.QueryEscape(username))
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("endpoint: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return "", fmt.Errorf("endpoint: unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

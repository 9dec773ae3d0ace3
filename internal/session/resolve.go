package session

import (
	"errors"

	"github.com/matheus3301/hangouts/internal/config"
)

// ErrNoUser is returned when neither the --user flag nor config names a user.
var ErrNoUser = errors.New("no user: pass --user or set default_user in config.toml")

// Resolve determines the signed-in user using precedence:
// 1. flagOverride (--user flag)
// 2. config.toml default_user
// The result is validated with ValidateName.
func Resolve(flagOverride string) (string, error) {
	user := flagOverride
	if user == "" {
		cfg, err := config.Load(ConfigPath())
		if err == nil {
			user = cfg.DefaultUser
		}
	}
	if user == "" {
		return "", ErrNoUser
	}
	if err := ValidateName(user); err != nil {
		return "", err
	}
	return user, nil
}

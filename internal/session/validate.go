package session

import (
	"fmt"
	"regexp"
)

var nameRegexp = regexp.MustCompile(`^[a-z0-9_.-]{1,64}$`)

// ValidateName checks that a username is safe to use as a directory name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid username %q: must match ^[a-z0-9_.-]{1,64}$", name)
	}
	return nil
}

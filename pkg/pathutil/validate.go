// Package pathutil provides lock-name validation for pmxlock.
package pathutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pmxlock-project/pmxlock/pkg/errclass"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateLockName checks that a lock name is safe to use both as a local
// lock file name and as a shared-store directory name.
func ValidateLockName(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("lock name must not be empty")
	}

	// NFC normalize
	name = norm.NFC.String(name)

	if name == "." || strings.Contains(name, "..") {
		return errclass.ErrNameInvalid.WithMessagef("lock name must not contain '..': %s", name)
	}

	if strings.ContainsAny(name, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("lock name must not contain separators: %s", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("lock name must not contain control characters: %q", name)
		}
	}

	if !nameRegex.MatchString(name) {
		return errclass.ErrNameInvalid.WithMessagef("lock name must match [a-zA-Z0-9._-]+: %s", name)
	}

	return nil
}

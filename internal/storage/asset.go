package storage

import (
	"fmt"
	"regexp"

	"github.com/pixil98/go-errors"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]*$`)

type ValidatingSpec interface {
	Validate() error
}

// Asset is the on-disk envelope of a stored spec.
type Asset[T ValidatingSpec] struct {
	Version    uint   `json:"version"`
	Identifier string `json:"id"`
	Spec       T      `json:"spec"`
}

func (a *Asset[T]) Id() string {
	return a.Identifier
}

func (a *Asset[T]) Validate() error {
	el := errors.NewErrorList()

	if a.Version == 0 {
		el.Add(fmt.Errorf("version must be set"))
	}

	el.Add(ValidateIdentifier("id", a.Identifier, true))
	el.Add(a.Spec.Validate())

	return el.Err()
}

// ValidateIdentifier checks that id is usable as an asset id and file name.
func ValidateIdentifier(field string, id string, required bool) error {
	if id == "" {
		if required {
			return fmt.Errorf("%s must be set", field)
		}
		return nil
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("%s must be alphanumeric", field)
	}
	return nil
}

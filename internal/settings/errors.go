package settings

import (
	"errors"
	"fmt"
)

var errNegative = errors.New("must be >= 0")

// ConfigurationError reports a missing or malformed settings key.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Key != "" && e.Err != nil:
		return fmt.Sprintf("configuration key %s: %v", e.Key, e.Err)
	case e.Key != "":
		return fmt.Sprintf("configuration key %s is required", e.Key)
	case e.Err != nil:
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return "configuration: invalid"
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

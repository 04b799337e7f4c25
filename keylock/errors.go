/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a configuration value or an argument is not acceptable.
// No work is queued when it is returned.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgumentErr(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}

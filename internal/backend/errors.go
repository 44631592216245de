package backend

import (
	"errors"
	"fmt"
)

// BusinessError means the backend answered but rejected the operation:
// HTTP 200 with a non-1 status field. No local state should be mutated
// when one of these comes back.
type BusinessError struct {
	Status int
	Msg    string
}

func (e *BusinessError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("backend rejected request (status %d): %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("backend rejected request (status %d)", e.Status)
}

// IsBusiness reports whether err is a backend business-rule failure, as
// opposed to a transient transport failure.
func IsBusiness(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

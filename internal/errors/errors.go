// internal/errors/errors.go
package appErrors

import (
    "errors"
    "fmt"
)

// ErrPersonNotFound is a sentinel error
type ErrPersonNotFound struct {
    PersonID int
}

func (e *ErrPersonNotFound) Error() string {
    return fmt.Sprintf("person with ID %d not found", e.PersonID)
}

// Helper constructor
func NewPersonNotFound(id int) error {
    return &ErrPersonNotFound{PersonID: id}
}

// ErrQueueItemNotFound covers missing or already-processed queue items.
type ErrQueueItemNotFound struct {
    ItemID int
}

func (e *ErrQueueItemNotFound) Error() string {
    return fmt.Sprintf("queue item with ID %d not found or already processed", e.ItemID)
}

func NewQueueItemNotFound(id int) error {
    return &ErrQueueItemNotFound{ItemID: id}
}

// ErrNoContactChannel is returned when an approve or send is attempted on a
// person with no usable address. Rejected before any dispatch attempt.
type ErrNoContactChannel struct {
    PersonID int
}

func (e *ErrNoContactChannel) Error() string {
    return fmt.Sprintf("person %d has no usable contact channel", e.PersonID)
}

func NewNoContactChannel(personID int) error {
    return &ErrNoContactChannel{PersonID: personID}
}

// ErrDispatchFailure wraps a gateway delivery failure. The queue item stays
// pending; the caller decides whether to retry.
type ErrDispatchFailure struct {
    Address string
    Err     error
}

func (e *ErrDispatchFailure) Error() string {
    return fmt.Sprintf("dispatch to %s failed: %v", e.Address, e.Err)
}

func (e *ErrDispatchFailure) Unwrap() error {
    return e.Err
}

func NewDispatchFailure(address string, err error) error {
    return &ErrDispatchFailure{Address: address, Err: err}
}

// ErrValidation flags malformed input to a workflow transition. Fails fast,
// never retried.
type ErrValidation struct {
    Field  string
    Reason string
}

func (e *ErrValidation) Error() string {
    return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
    return &ErrValidation{Field: field, Reason: reason}
}

// IsNotFound reports whether err is a person or queue item lookup miss.
func IsNotFound(err error) bool {
    var pnf *ErrPersonNotFound
    var qnf *ErrQueueItemNotFound
    return errors.As(err, &pnf) || errors.As(err, &qnf)
}

package events

import "errors"

// ErrInvalidCommand is returned by handlers for payloads that do not decode.
var ErrInvalidCommand = errors.New("events: invalid command payload")

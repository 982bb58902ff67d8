package mqtt

import "errors"

// ErrPublishFailed is returned when a message could not be published after all retries.
var ErrPublishFailed = errors.New("mqtt publish failed")

// ErrInvalidCommand is returned when a command payload cannot be decoded.
var ErrInvalidCommand = errors.New("invalid mqtt command")

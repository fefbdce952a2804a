package service

import "errors"

// ErrModuleNotCompleted is returned when a certificate is requested for a module
// the user has not finished.
var ErrModuleNotCompleted = errors.New("module not completed")

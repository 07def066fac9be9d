package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrConfig            = errors.New("configuration error")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSyncRunning       = errors.New("sync already running")
	ErrInternal          = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSyncRunning(err error) bool {
	return errors.Is(err, ErrSyncRunning)
}

func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

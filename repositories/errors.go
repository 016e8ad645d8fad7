package repositories

import "errors"

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrScheduleNotFound = errors.New("schedule not found")
)

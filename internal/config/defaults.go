package config

import "errors"

const DefaultTuneHome = "~/.tune"

var (
	ErrTuneHomeNotSet       = errors.New("tune home directory is not set")
	ErrTuneHomeExpandFailed = errors.New("failed to expand tune home directory")
)

package cmd

import "errors"

var (
	ErrMissingSubcommand = errors.New("must specify a subcommand")
	ErrMissingScenario   = errors.New("must specify a scenario file")
	ErrInvalidArgs       = errors.New("invalid args")
)

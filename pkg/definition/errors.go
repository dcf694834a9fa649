package definition

import "errors"

var (
	ErrFailedToParseYAML = errors.New("failed to parse machine definition")
	ErrInvalidDefinition = errors.New("invalid machine definition")
	ErrUnknownFunc       = errors.New("unknown function name")
)

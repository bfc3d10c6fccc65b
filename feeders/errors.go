package feeders

import "errors"

// Static error definitions for feeders
var (
	ErrEnvInvalidStructure = errors.New("env: invalid structure")
	ErrEnvEmptyPrefix      = errors.New("env: prefix cannot be empty")
	ErrFileNotFound        = errors.New("config file not found")
	ErrNotPointer          = errors.New("feed target must be a non-nil pointer")
)

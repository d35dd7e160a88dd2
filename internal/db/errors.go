package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrKeyExists   = errors.New("db: key already exists")
)

// Op constants name the failing command for error context.
const (
	OpHGetAll = "HGETALL"
	OpHSet    = "HSET"
	OpHIncr   = "HINCRBY"
	OpSAdd    = "SADD"
	OpSRem    = "SREM"
	OpSCard   = "SCARD"
	OpExec    = "EXEC"
	OpQuery   = "QUERY"
	OpMigrate = "MIGRATE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

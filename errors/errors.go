package errors

import "fmt"

type ErrorCode int

const (
	InternalError ErrorCode = iota
	InvalidConfiguration
	ConnectionClosed
	CursorClosed
	NoResultSet
	InvalidFetchSize
	InterfaceError
	DatabaseError
	ProtocolError
)

func NewInvalidConfigurationError(msg string) DriverError {
	return NewDriverErrorf(InvalidConfiguration, "Invalid configuration: %s", msg)
}

func NewConnectionClosedError() DriverError {
	return NewDriverErrorf(ConnectionClosed, "Connection is closed")
}

func NewCursorClosedError() DriverError {
	return NewDriverErrorf(CursorClosed, "Cursor is closed")
}

func NewNoResultSetError() DriverError {
	return NewDriverErrorf(NoResultSet, "No result set available - execute a command first")
}

func NewInvalidFetchSizeError(size int) DriverError {
	return NewDriverErrorf(InvalidFetchSize, "Fetch size must be >= 0, got %d", size)
}

// NewInterfaceError is returned when the request never produced a well-formed
// response from the server, e.g. on network failure
func NewInterfaceErrorf(msgFormat string, args ...interface{}) DriverError {
	return NewDriverErrorf(InterfaceError, msgFormat, args...)
}

// NewDatabaseError wraps a failure reported by the server itself
func NewDatabaseError(msg string) DriverError {
	return NewDriverErrorf(DatabaseError, "%s", msg)
}

func NewProtocolErrorf(msgFormat string, args ...interface{}) DriverError {
	return NewDriverErrorf(ProtocolError, msgFormat, args...)
}

func NewDriverErrorf(errorCode ErrorCode, msgFormat string, args ...interface{}) DriverError {
	msg := fmt.Sprintf(fmt.Sprintf("DBSQL%04d - %s", errorCode, msgFormat), args...)
	return DriverError{Code: errorCode, Msg: msg}
}

// DriverError is any kind of error that is exposed to the user of the driver
type DriverError struct {
	Code ErrorCode
	Msg  string
}

func (d DriverError) Error() string {
	return d.Msg
}

// ErrorCodeOf returns the DriverError code carried by err, or InternalError
// if err did not originate in this package
func ErrorCodeOf(err error) ErrorCode {
	var derr DriverError
	if As(err, &derr) {
		return derr.Code
	}
	return InternalError
}

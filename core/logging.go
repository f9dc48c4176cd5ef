package core

// Logger is any leveled logging service.
// args may carry anything useful to the backend: errors, maps, the acting user...
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

package core

// Logger is any service that can log messages.
// args may contain errors, map[string]interface{} extras, or the acting user's claims.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies the authenticated user a log line is about.
type Actor struct {
	ID       string
	Username string
	Email    string
	SchoolID string
}

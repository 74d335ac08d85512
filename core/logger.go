package core

// Logger is the application logger.
// `args` may hold errors, extra data maps and at most one Actor.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies who triggered a logged event.
type Actor struct {
	ID        string
	Name      string
	School    string
	IsSystem  bool
	RequestID string
}

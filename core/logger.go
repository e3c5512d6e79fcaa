package core

// Logger reports application events.
// args may hold errors, maps of extra data and the authenticated Identity.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Identity is the caller attached to logged events.
type Identity struct {
	ID    string
	Email string
}

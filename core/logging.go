package core

// Logger is any service that can report app events; deployed envs ship
// them to an error tracker while dev/test print to stdout.
//
// args may carry an error, a map of extra data and/or the acting admin user.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

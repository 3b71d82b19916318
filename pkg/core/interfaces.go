package core

// Logger is the leveled logging surface used across the placer.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

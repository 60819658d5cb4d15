package led

import "log/slog"

// noop implements Line for systems without LED support.
type noop struct {
	logger *slog.Logger
}

// newNoop creates a new no-op LED line
func newNoop(logger *slog.Logger) *noop {
	return &noop{
		logger: logger,
	}
}

// Set logs the request but performs no actual LED control
func (n *noop) Set(on bool) {
	n.logger.Debug("LED control not available (no-op)", "on", on)
}

// Ready reports false: there is nothing to drive.
func (n *noop) Ready() bool {
	return false
}

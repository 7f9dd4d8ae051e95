package logging

import "go.uber.org/zap"

// New creates the process-wide zap logger, installs it as the global and
// returns the sugared handle
func New() *zap.SugaredLogger {
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)
	return logger.Sugar()
}

package analysis

import "github.com/tphakala/hubheight/internal/logger"

// getLogger scopes log to the analysis module, using the global logger when nil
func getLogger(log logger.Logger) logger.Logger {
	if log == nil {
		return logger.Global().Module("analysis")
	}
	return log.Module("analysis")
}

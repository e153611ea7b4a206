package conf

import "github.com/tphakala/hubheight/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// The logger is fetched from the global logger each time so it follows the
// central logger installed by the CLI.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}

package logging

import "go.uber.org/zap"

// New builds the process logger. Debug level switches to the human-readable
// development encoder; anything else gets production JSON output.
func New(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(levelOrInfo(level))); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func levelOrInfo(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

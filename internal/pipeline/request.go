package pipeline

import (
	"fmt"
	"strings"

	"invex/internal"
	"invex/internal/config"
)

// RequestFromConfig builds a run request from the loaded settings. Callers
// may override fields afterwards; Run validates the final request.
func RequestFromConfig(cfg config.Config) (RunRequest, error) {
	filter, err := cfg.FilterSpec()
	if err != nil {
		return RunRequest{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return RunRequest{
		SourceDir: cfg.SourceDir,
		DestDir:   cfg.DestDir,
		Filter:    filter,
		Overwrite: cfg.Overwrite,
		Unit:      internal.MatchUnit(strings.ToLower(strings.TrimSpace(cfg.MatchUnit))),
	}, nil
}

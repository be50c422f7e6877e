package logging

import (
	"log/slog"
	"strings"
)

func LevelFromString(str *string) slog.Level {
	if str == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(*str)))); err != nil {
		return slog.LevelInfo
	}
	return level
}

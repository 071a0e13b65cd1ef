package models

// ConfigError reports invalid or unknown profile/range configuration, such as
// a forced anomaly name that does not exist or a range with low > high.
// It is recoverable: callers decide whether to abort or fall back to defaults.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Msg
}

// DataError reports a malformed or incomplete input series: missing required
// metric, empty series, or non-monotonic timestamps. Nothing is silently
// coerced; a partial metric set would make anomaly counts misleading.
type DataError struct {
	Msg string
}

func (e *DataError) Error() string {
	return "data error: " + e.Msg
}

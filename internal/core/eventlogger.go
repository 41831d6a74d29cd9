package core

// Event levels accepted by EventLogger.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// EventLogger is the subset of the observability event log that sync
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(level, eventType string, data map[string]any) error
}

// LogEvent records an event on l when l is non-nil. Event log failures never
// interrupt a sync run, so the error is dropped.
func LogEvent(l EventLogger, level, eventType string, data map[string]any) {
	if l == nil {
		return
	}
	_ = l.LogEvent(level, eventType, data)
}

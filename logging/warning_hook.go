package logging

import (
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

const WarningBacklog = 64

type Warning struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type WarningHook struct {
	mtx      sync.Mutex
	warnings []Warning
}

func NewWarningHook() *WarningHook {
	return &WarningHook{}
}

func (wh *WarningHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel, log.WarnLevel}
}

func (wh *WarningHook) Fire(entry *log.Entry) error {
	wh.mtx.Lock()
	defer wh.mtx.Unlock()
	wh.warnings = append(wh.warnings, Warning{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
	})
	if len(wh.warnings) > WarningBacklog {
		wh.warnings = wh.warnings[len(wh.warnings)-WarningBacklog:]
	}
	return nil
}

func (wh *WarningHook) Recent() []Warning {
	wh.mtx.Lock()
	defer wh.mtx.Unlock()
	recent := make([]Warning, len(wh.warnings))
	copy(recent, wh.warnings)
	return recent
}

var warningHook = NewWarningHook()

// Recent returns the most recent warning-or-worse log entries, oldest first.
func Recent() []Warning {
	return warningHook.Recent()
}

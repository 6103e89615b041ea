package eventbus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
)

// loggerAdapter routes watermill logging to the subsystem logger.
type loggerAdapter struct {
	fields watermill.LogFields
}

// NewLoggerAdapter returns a watermill.LoggerAdapter writing to the eventbus
// subsystem logger.
func NewLoggerAdapter() watermill.LoggerAdapter {
	return &loggerAdapter{}
}

func (l *loggerAdapter) format(msg string, fields watermill.LogFields) string {
	all := l.fields.Add(fields)
	if len(all) == 0 {
		return msg
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, all[k])
	}
	return b.String()
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	log.Errorf("%s: %v", l.format(msg, fields), err)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	log.Info(l.format(msg, fields))
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	log.Debug(l.format(msg, fields))
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	log.Trace(l.format(msg, fields))
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{fields: l.fields.Add(fields)}
}

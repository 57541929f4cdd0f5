/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatter for bitlens. Prints timestamp, level and a
category prefix derived from the message, followed by sorted structured fields.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// PrefixFormatter renders compact single-line entries
type PrefixFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format implements logrus.Formatter
func (f *PrefixFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var output strings.Builder

	if f.Timestamp {
		timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
		if f.Colors {
			output.WriteString(fmt.Sprintf("\033[36m%s\033[0m ", timestamp))
		} else {
			output.WriteString(timestamp + " ")
		}
	}

	level := strings.ToUpper(entry.Level.String())
	if f.Colors {
		output.WriteString(fmt.Sprintf("\033[%dm%s\033[0m ", levelColor(entry.Level), level))
	} else {
		output.WriteString(level + " ")
	}

	message := entry.Message
	prefix, rest := categoryPrefix(message)
	if prefix != "" {
		message = rest
		if f.Colors {
			output.WriteString(fmt.Sprintf("\033[35m[%s]\033[0m ", prefix))
		} else {
			output.WriteString(fmt.Sprintf("[%s] ", prefix))
		}
	}

	if f.Caller && entry.HasCaller() {
		caller := fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
		if f.Colors {
			output.WriteString(fmt.Sprintf("\033[33m[%s]\033[0m ", caller))
		} else {
			output.WriteString(fmt.Sprintf("[%s] ", caller))
		}
	}

	output.WriteString(message)

	if len(entry.Data) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(entry.Data))
	}

	output.WriteString("\n")
	return []byte(output.String()), nil
}

var explicitPrefixes = []string{"STAGE", "ANALYSIS", "SEARCH", "LOAD", "STORE"}

// categoryPrefix returns the category for a message. A leading "CATEGORY: " tag
// is stripped from the message; otherwise the category comes from its wording.
func categoryPrefix(message string) (string, string) {
	for _, p := range explicitPrefixes {
		if strings.HasPrefix(message, p+": ") {
			return p, strings.TrimPrefix(message, p+": ")
		}
	}

	switch {
	case strings.HasPrefix(message, "Stage "):
		return "STAGE", message
	case strings.Contains(message, "Frame width"):
		return "ANALYSIS", message
	case strings.Contains(message, "Pattern"):
		return "SEARCH", message
	case strings.Contains(message, "File loaded"):
		return "LOAD", message
	default:
		return "", message
	}
}

func levelColor(level logrus.Level) int {
	switch level {
	case logrus.InfoLevel:
		return 32 // green
	case logrus.WarnLevel:
		return 33 // yellow
	case logrus.ErrorLevel:
		return 31 // red
	case logrus.FatalLevel, logrus.PanicLevel:
		return 35 // magenta
	default:
		return 37
	}
}

func (f *PrefixFormatter) formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := formatValue(key, fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, value))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", key, value))
		}
	}
	return strings.Join(parts, " ")
}

func formatValue(key string, value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("15:04:05.000")
	case float64:
		if key == "score" {
			return fmt.Sprintf("%.4f", v)
		}
		return fmt.Sprintf("%g", v)
	case string:
		if len(v) > 50 {
			return v[:50] + "..."
		}
		return v
	case []byte:
		if len(v) > 20 {
			return fmt.Sprintf("[%d bytes]", len(v))
		}
		return fmt.Sprintf("%x", v)
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Package ghoutput publishes operation results as GitHub Actions step outputs.
package ghoutput

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Write appends key=value lines to the step output file at path. An empty path
// means the process is not running in Actions and nothing is written.
func Write(path string, values map[string]string) error {
	path = strings.TrimSpace(path)
	if path == "" || len(values) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open step output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, sanitize(values[key])); err != nil {
			return fmt.Errorf("write step output %s: %w", key, err)
		}
	}
	return nil
}

// PlanOutputs are the values published after an operation: the operation name,
// its comma-separated targets and the plan id used in debug logs.
func PlanOutputs(operation string, targets []string, planID string) map[string]string {
	return map[string]string{
		"operation": operation,
		"targets":   strings.Join(targets, ","),
		"plan_id":   planID,
	}
}

func sanitize(value string) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\r", "%0D")
	value = strings.ReplaceAll(value, "\n", "%0A")
	return value
}

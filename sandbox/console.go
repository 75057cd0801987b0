package sandbox

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
)

var consoleLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"log":   slog.LevelInfo,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newConsole returns a console object writing to the instance logger.
func (m *module) newConsole() *goja.Object {
	console := m.vm.NewObject()
	logger := m.logger.With("source", "console")

	for name, level := range consoleLevels {
		level := level
		_ = console.Set(name, func(call goja.FunctionCall) goja.Value {
			logger.Log(context.Background(), level, formatArgs(call.Arguments))
			return goja.Undefined()
		})
	}
	return console
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for n, a := range args {
		parts[n] = formatValue(a)
	}
	return strings.Join(parts, " ")
}

func formatValue(v goja.Value) string {
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() == "Error" || obj.ClassName() == "Function" {
		return v.String()
	}
	exported := v.Export()
	return describe(v, exported)
}

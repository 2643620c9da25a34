package menucache

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// With returns a copy of f extended with k=v; f is left untouched.
func (f Fields) With(k string, v any) Fields {
	out := make(Fields, len(f)+1)
	for fk, fv := range f {
		out[fk] = fv
	}
	out[k] = v
	return out
}

// Logger is a tiny leveled logger. Provide an adapter around logging stack
// (see log/zap, log/logrus, log/slog). If Logger is nil in Options, logging is disabled.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

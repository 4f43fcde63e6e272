package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Config salida y nivel del logger de la aplicación.
type Config struct {
	Env     string    // development: consola legible; cualquier otro valor: JSON
	Level   string    // nivel de zerolog; vacío o desconocido equivale a info
	Service string    // campo "service" en cada línea
	Output  io.Writer // os.Stdout si es nil
}

// New arma el logger raíz y lo instala como logger global de zerolog. Un nivel no
// reconocido se registra como advertencia y se usa info.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Env == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	level, levelErr := Level(cfg.Level)
	zctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	root := zctx.Logger()
	log.Logger = root

	if levelErr != nil {
		root.Warn().Err(levelErr).Str("level_name", cfg.Level).Msg("nivel de log no reconocido, se usa info")
	}
	return root
}

// Level traduce el nombre del nivel; "" es info.
func Level(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, err
	}
	return lvl, nil
}

// Component sublogger con el campo "component".
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// WithTrace agrega trace_id y span_id del span activo en ctx, si lo hay.
func WithTrace(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}

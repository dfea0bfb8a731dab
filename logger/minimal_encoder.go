package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
	colorTime  = "\x1b[38;5;108m" // muted cyan-green
	colorComp  = "\x1b[38;5;109m" // soft blue
	colorID    = "\x1b[38;5;109m"
	colorWarn  = "\x1b[38;5;214m"
	colorErr   = "\x1b[38;5;167m"
)

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  gateway  client connected  connection_id=abcd-1234"
type minimalEncoder struct {
	zapcore.Encoder
	buf *buffer.Buffer
}

func newMinimalEncoder() *minimalEncoder {
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return &minimalEncoder{
		Encoder: base,
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()

	final.AppendString(colorTime)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComp)
		final.AppendString(ent.LoggerName)
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	if kv := extractFieldValues(fields); kv != "" {
		final.AppendString("  ")
		final.AppendString(kv)
	}

	final.AppendString("\n")
	return final, nil
}

func levelColorString(level zapcore.Level) string {
	switch level {
	case zapcore.WarnLevel:
		return colorBold + colorWarn + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + colorErr + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + colorErr + level.CapitalString() + colorReset
	default:
		return ""
	}
}

func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	default:
		if field.Interface != nil {
			return fmt.Sprintf("%v", field.Interface)
		}
		return ""
	}
}

// extractFieldValues renders structured fields as "key=value" pairs, coloring
// identifier-shaped fields (connection/session/account ids) so they stand out
// in an interactive terminal without drowning the message in noise.
func extractFieldValues(fields []zapcore.Field) string {
	var parts []string
	for _, field := range fields {
		val := fieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case FieldConnectionID, FieldSessionID, FieldAccount, FieldNodeURL:
			parts = append(parts, field.Key+"="+colorID+val+colorReset)
		default:
			parts = append(parts, field.Key+"="+val)
		}
	}
	return strings.Join(parts, " ")
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		l, err := New(env)
		require.NoError(t, err)
		require.NotNil(t, l)
	}
}

func TestProperty_UsernameFieldIsStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("username is kept as its own field", prop.ForAll(
		func(username string) bool {
			var buf bytes.Buffer
			cfg := zap.NewProductionEncoderConfig()
			core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(&buf), zapcore.DebugLevel)
			l := zap.New(core)
			l.Info("inventory loaded", zap.String("username", username))

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			return entry["username"] == username && entry["msg"] == "inventory loaded"
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

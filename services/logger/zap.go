package logsvc

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/findmytutor/findmytutor/core"
)

// NewZapLogger builds the local log output: JSON in PROD, colored console elsewhere.
func NewZapLogger(conf *core.Config, name string) *zap.Logger {
	var config zap.Config

	if conf.Env == "PROD" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}

	logger, err := config.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return logger.Named(name)
}

// Command podroom-stream is the Lambda function attached to the podroom
// table's DynamoDB stream. It decodes every change and logs Episodes as
// they are published.
package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/jacentio/podroom/internal/config"
	"github.com/jacentio/podroom/internal/logging"
	"github.com/jacentio/podroom/stream"
)

func main() {
	cfg, err := config.Load(os.Getenv("PODROOM_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger = logger.With(zap.String("table", cfg.Table))
	handler := stream.NewHandler(stream.LogNotifier(logger), logger)
	lambda.Start(handler.HandleStream)
}

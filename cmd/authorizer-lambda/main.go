package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/target/mmk-cdn-authorizer/internal/bootstrap"
	"github.com/target/mmk-cdn-authorizer/internal/lambdahandler"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Lambda init failure must surface as a non-zero exit.
	}

	// Built once per execution environment and reused across invocations.
	rt, err := bootstrap.NewRuntime(ctx, bootstrap.RuntimeDeps{Config: &cfg, Logger: logger})
	if err != nil {
		logger.ErrorContext(ctx, "build runtime", "error", err)
		os.Exit(1) //nolint:forbidigo // Lambda init failure must surface as a non-zero exit.
	}

	h, err := lambdahandler.New(rt.Authorizer)
	if err != nil {
		logger.ErrorContext(ctx, "build handler", "error", err)
		os.Exit(1) //nolint:forbidigo // Lambda init failure must surface as a non-zero exit.
	}

	lambda.StartWithOptions(h.Handle, lambda.WithEnableSIGTERM(func() {
		if cerr := rt.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close runtime failed", "error", cerr)
		}
	}))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pak23399/TSchedule/internal/gateway"
	"github.com/pak23399/TSchedule/internal/observability"
	"github.com/pak23399/TSchedule/internal/platform/envutil"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/platform/shutdown"
	"github.com/pak23399/TSchedule/internal/replay"
)

func main() {
	var scriptPath, baseURL, token string
	flag.StringVar(&scriptPath, "script", "", "YAML file of pointer steps to replay")
	flag.StringVar(&baseURL, "api", envutil.String("TSCHEDULE_API_URL", "http://localhost:8080"), "schedule API base URL")
	flag.StringVar(&token, "token", os.Getenv("TSCHEDULE_TOKEN"), "bearer token for the API")
	flag.Parse()

	if scriptPath == "" {
		fmt.Println("-script is required")
		os.Exit(2)
	}

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	f, err := os.Open(scriptPath)
	if err != nil {
		fmt.Printf("open script: %v\n", err)
		os.Exit(1)
	}
	script, err := replay.Load(f)
	f.Close()
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	client, err := gateway.New(log, gateway.Config{BaseURL: baseURL, Token: token})
	if err != nil {
		fmt.Printf("init gateway: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	metrics := observability.Init(log)
	rep, err := replay.Run(ctx, log, client, script)
	if err != nil {
		fmt.Printf("replay: %v\n", err)
		if gateway.IsAuth(err) {
			fmt.Println("the API rejected the token; pass -token or set TSCHEDULE_TOKEN")
		}
		os.Exit(1)
	}
	rep.Print(os.Stdout)
	_ = metrics.WriteText(os.Stderr)
}

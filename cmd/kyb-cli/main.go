package main

import (
	"context"
	"os"

	"kyb-backend/cmd/kyb-cli/commands"
	"kyb-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)

	baseUrl, ok := os.LookupEnv("KYB_BASE_URL")
	if ok {
		commands.BaseUrl = baseUrl
	}

	commands.ExecuteContext(context.Background())
}

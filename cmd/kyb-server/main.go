package main

import (
	"flag"
	"net/http"

	"kyb-backend/lib/configutil"
	"kyb-backend/lib/configutil/sqlitecfg"
	"kyb-backend/lib/serviceutil"
)

type LlmConfig struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
}

type YelpConfig struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
}

type GmapsConfig struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
}

type LinkedinConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Port        int              `json:"port"`
	Database    sqlitecfg.Struct `json:"database"`
	DefaultCity string           `json:"default_city"`
	Llm         LlmConfig        `json:"llm"`
	Yelp        YelpConfig       `json:"yelp"`
	Gmaps       GmapsConfig      `json:"gmaps"`
	Linkedin    LinkedinConfig   `json:"linkedin"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	mux := http.NewServeMux()

	err = InitKyb(mux, cfg)
	if err != nil {
		serviceutil.Fatal("init kyb", err)
	}

	port := cfg.Port
	if port == 0 {
		port = 8000
	}
	go serviceutil.StartHttpServer(port, mux)
	<-ctx.Done()
}

package main

import (
	"net/http"

	"kyb-backend/lib/directories/gmaps"
	"kyb-backend/lib/directories/linkedin"
	"kyb-backend/lib/directories/yelp"
	"kyb-backend/lib/llm"
	"kyb-backend/lib/obsstore"
	"kyb-backend/lib/obsstore/db"
	"kyb-backend/services/kyb"
)

func InitKyb(mux *http.ServeMux, cfg Config) error {
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		return err
	}

	network, err := linkedin.NewClient(linkedin.ClientOptions{
		BaseUrl:  cfg.Linkedin.BaseUrl,
		Username: cfg.Linkedin.Username,
		Password: cfg.Linkedin.Password,
	})
	if err != nil {
		return err
	}

	service := kyb.NewService(kyb.ServiceOptions{
		Store: obsstore.NewStore(database),
		Llm: llm.NewClient(llm.ClientOptions{
			BaseUrl: cfg.Llm.BaseUrl,
			ApiKey:  cfg.Llm.ApiKey,
			Model:   cfg.Llm.Model,
		}),
		Reviews: yelp.NewClient(yelp.ClientOptions{
			BaseUrl: cfg.Yelp.BaseUrl,
			ApiKey:  cfg.Yelp.ApiKey,
		}),
		Places: gmaps.NewClient(gmaps.ClientOptions{
			BaseUrl: cfg.Gmaps.BaseUrl,
			ApiKey:  cfg.Gmaps.ApiKey,
		}),
		Network:     network,
		DefaultCity: cfg.DefaultCity,
	})
	kyb.RegisterRoutes(mux, service)
	return nil
}

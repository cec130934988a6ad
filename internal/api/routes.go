package api

import (
	"net/http"

	"github.com/JaimeStill/wayfinder/internal/config"
	"github.com/JaimeStill/wayfinder/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Travel.Handler(cfg.API.BasePath).Routes(),
		domain.Prompts.Handler().Routes(),
	)
}

// Package api assembles the API module with all domain systems and route
// registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/waybill/internal/config"
	"github.com/JaimeStill/waybill/internal/infrastructure"
	"github.com/JaimeStill/waybill/pkg/middleware"
	"github.com/JaimeStill/waybill/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain exposes long-running systems (scheduler) the server
// starts separately.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	authenticate, err := middleware.Authenticate(&cfg.API.Auth, runtime.Logger)
	if err != nil {
		return nil, nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(authenticate)
	m.Use(middleware.Logger(runtime.Logger))

	return m, domain, nil
}

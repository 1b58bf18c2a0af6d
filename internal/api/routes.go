package api

import (
	"net/http"

	"github.com/JaimeStill/waybill/internal/config"
	"github.com/JaimeStill/waybill/internal/notifications"
	"github.com/JaimeStill/waybill/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config, runtime *Runtime) {
	events := notifications.NewHandler(domain.Hub, runtime.Logger)

	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Extractions.Handler().Routes(),
		domain.Submission.Handler().Routes(),
		domain.Logs.Handler().Routes(),
		events.Routes(),
	)
}

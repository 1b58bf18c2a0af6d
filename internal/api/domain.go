package api

import (
	"github.com/JaimeStill/waybill/internal/config"
	"github.com/JaimeStill/waybill/internal/documents"
	"github.com/JaimeStill/waybill/internal/extractions"
	"github.com/JaimeStill/waybill/internal/extractor"
	"github.com/JaimeStill/waybill/internal/notifications"
	"github.com/JaimeStill/waybill/internal/processlog"
	"github.com/JaimeStill/waybill/internal/scheduler"
	"github.com/JaimeStill/waybill/internal/submission"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents   documents.System
	Extractions extractions.System
	Submission  submission.System
	Logs        processlog.System
	Hub         *notifications.Hub
	Scheduler   *scheduler.Scheduler
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	conn := runtime.Database.Connection()

	hub := notifications.NewHub(runtime.Logger)
	logs := processlog.New(conn, runtime.Logger)
	ledger := extractions.New(conn, runtime.Logger)
	strategy := extractor.ForConfig(&cfg.Extraction, runtime.Logger)

	docs := documents.New(documents.Options{
		DB:         conn,
		Store:      runtime.Storage,
		Strategy:   strategy,
		Logs:       logs,
		Notifier:   hub,
		Logger:     runtime.Logger,
		Pagination: runtime.Pagination,
	})

	gateway := submission.NewGateway(&cfg.Submission)
	submit := submission.New(gateway, docs, ledger, logs, runtime.Logger)

	sched := scheduler.New(&cfg.Scheduler, docs, runtime.Logger)

	return &Domain{
		Documents:   docs,
		Extractions: ledger,
		Submission:  submit,
		Logs:        logs,
		Hub:         hub,
		Scheduler:   sched,
	}
}

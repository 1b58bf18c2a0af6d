package extractor

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
)

// Template is the fallback extraction strategy. It derives header fields
// from the delivery-report naming convention
// (e.g. PODReport_M03_714019_101270380_6X503_20260115.pdf) and fills every
// other field with an empty placeholder for the reviewer to complete.
// Extraction is pure: the same filename always yields identical output.
type Template struct{}

func (Template) Name() string { return "template" }

func (Template) Extract(_ context.Context, _ []byte, filename string) Result {
	return templateResult(filename, "")
}

// templateResult builds a template payload for filename. A non-empty errText
// marks the result as failed while still carrying a usable payload.
func templateResult(filename, errText string) Result {
	payload, _ := json.MarshalIndent(templatePayload(filename), "", "  ")

	return Result{
		Success:     errText == "",
		NeedsReview: true,
		Payload:     payload,
		Err:         errText,
	}
}

type stopInfo struct {
	PlannedArrival string `json:"planned_arrival"`
	ActualArrival  string `json:"actual_arrival"`
	DeliveryStart  string `json:"delivery_start"`
	DeliveryEnd    string `json:"delivery_end"`
	DeliveryTime   string `json:"delivery_time"`
	IdleTime       string `json:"idle_time"`
	Punctuality    string `json:"punctuality"`
	Departure      string `json:"departure"`
}

type goodsTotal struct {
	Articles          int    `json:"articles"`
	QuantityOrdered   int    `json:"quantity_ordered"`
	QuantityDelivered int    `json:"quantity_delivered"`
	QuantityReceived  string `json:"quantity_received"`
	TotalWeight       string `json:"total_weight"`
	TotalPrice        string `json:"total_price"`
}

type returnsSummary struct {
	Planned    int    `json:"planned"`
	Delivered  int    `json:"delivered"`
	Collected  int    `json:"collected"`
	Difference int    `json:"difference"`
	Confirmed  string `json:"confirmed"`
}

type completion struct {
	AcceptanceStatus string `json:"acceptance_status"`
	Comment          string `json:"comment"`
	DriverSignature  string `json:"driver_signature"`
	Timestamp        string `json:"timestamp"`
}

type podPayload struct {
	Filename        string         `json:"filename"`
	Client          string         `json:"client"`
	Depot           string         `json:"depot"`
	Branch          string         `json:"branch"`
	Tour            string         `json:"tour"`
	Vehicle         string         `json:"vehicle"`
	Trailer         string         `json:"trailer"`
	Driver          string         `json:"driver"`
	Address         string         `json:"address"`
	PlannedDelivery string         `json:"planned_delivery"`
	Stop            stopInfo       `json:"stop"`
	Temperatures    []any          `json:"temperatures"`
	Goods           []any          `json:"goods"`
	GoodsTotal      goodsTotal     `json:"goods_total"`
	Returns         returnsSummary `json:"returns"`
	Completion      completion     `json:"completion"`
}

func templatePayload(filename string) podPayload {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	parts := strings.Split(name, "_")

	part := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	return podPayload{
		Filename:     filename,
		Client:       part(1),
		Branch:       part(2),
		Tour:         part(4),
		Temperatures: []any{},
		Goods:        []any{},
	}
}

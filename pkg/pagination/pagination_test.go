package pagination_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/JaimeStill/waybill/pkg/pagination"
	"github.com/JaimeStill/waybill/pkg/query"
)

var cfg = pagination.Config{DefaultPageSize: 25, MaxPageSize: 100}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		req      pagination.PageRequest
		wantPage int
		wantSize int
	}{
		{"zero values", pagination.PageRequest{}, 1, 25},
		{"negative page", pagination.PageRequest{Page: -2, PageSize: 10}, 1, 10},
		{"oversized page", pagination.PageRequest{Page: 3, PageSize: 500}, 3, 100},
		{"valid", pagination.PageRequest{Page: 2, PageSize: 50}, 2, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(cfg)
			if tt.req.Page != tt.wantPage || tt.req.PageSize != tt.wantSize {
				t.Errorf("normalized to %d/%d, want %d/%d",
					tt.req.Page, tt.req.PageSize, tt.wantPage, tt.wantSize)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("page", "2")
	values.Set("page_size", "10")
	values.Set("search", "714019")
	values.Set("sort", "filename,-received_at")

	req := pagination.PageRequestFromQuery(values, cfg)

	if req.Page != 2 || req.PageSize != 10 {
		t.Errorf("page = %d/%d, want 2/10", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "714019" {
		t.Errorf("search = %v", req.Search)
	}
	if len(req.Sort) != 2 {
		t.Fatalf("sort fields = %d, want 2", len(req.Sort))
	}
	if req.Sort[1].Field != "received_at" || !req.Sort[1].Descending {
		t.Errorf("second sort field = %+v", req.Sort[1])
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	var fromString pagination.PageRequest
	if err := json.Unmarshal([]byte(`{"sort": "-received_at"}`), &fromString); err != nil {
		t.Fatal(err)
	}
	if len(fromString.Sort) != 1 || !fromString.Sort[0].Descending {
		t.Errorf("string sort = %+v", fromString.Sort)
	}

	var fromArray pagination.PageRequest
	payload := `{"sort": [{"field": "filename", "descending": false}]}`
	if err := json.Unmarshal([]byte(payload), &fromArray); err != nil {
		t.Fatal(err)
	}
	if len(fromArray.Sort) != 1 || fromArray.Sort[0].Field != "filename" {
		t.Errorf("array sort = %+v", fromArray.Sort)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		pageSize   int
		wantPages  int
	}{
		{"exact pages", 100, 25, 4},
		{"partial last page", 101, 25, 5},
		{"empty", 0, 25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult([]string{}, tt.total, 1, tt.pageSize)
			if result.TotalPages != tt.wantPages {
				t.Errorf("total pages = %d, want %d", result.TotalPages, tt.wantPages)
			}
		})
	}

	nilData := pagination.NewPageResult[query.SortField](nil, 0, 1, 25)
	if nilData.Data == nil {
		t.Error("nil data should serialize as an empty array, not null")
	}
}

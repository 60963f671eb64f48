package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/services"
	"github.com/uestliguci/LifestyleCalculator/internal/storage/memory"
)

type nopPublisher struct{}

func (nopPublisher) PublishBackup(context.Context, string, string) error { return nil }

func newGateway() (*Gateway, *services.TransactionService) {
	svc := services.NewTransactionService(memory.New(), nopPublisher{})
	return NewGateway(svc), svc
}

func seed(t *testing.T, svc *services.TransactionService, user string) core.Transaction {
	t.Helper()
	created, err := svc.Create(context.Background(), user, core.Transaction{
		Type:     core.Expense,
		Amount:   core.Money{Cents: 4200},
		Category: "Groceries",
		Date:     "2024-03-10T08:30:00.000Z",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return created
}

func TestExportJSONShape(t *testing.T) {
	gw, svc := newGateway()
	seed(t, svc, "u1")

	raw, doc, err := gw.ExportJSON(context.Background(), "u1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(doc.Transactions) != 1 {
		t.Fatalf("expected one transaction in document, got %d", len(doc.Transactions))
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	for _, key := range []string{"transactions", "settings", "exportDate"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("document missing %q key: %s", key, raw)
		}
	}
	// Pretty-printed output for a human-readable backup file.
	if raw[1] != '\n' {
		t.Fatalf("expected indented JSON, got %s", raw[:min(len(raw), 40)])
	}
}

func TestRoundTrip(t *testing.T) {
	gw, svc := newGateway()
	seed(t, svc, "u1")
	raw, _, err := gw.ExportJSON(context.Background(), "u1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	fresh, freshSvc := newGateway()
	if err := fresh.ImportFile(context.Background(), "u1", "backup.json", raw); err != nil {
		t.Fatalf("import: %v", err)
	}

	before, _ := svc.List(context.Background(), "u1")
	after, _ := freshSvc.List(context.Background(), "u1")
	if len(after) != len(before) {
		t.Fatalf("round trip lost records: %d vs %d", len(after), len(before))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("record %d changed across round trip:\n got %+v\nwant %+v", i, after[i], before[i])
		}
	}
}

func TestImportRejectsNonJSONExtension(t *testing.T) {
	gw, _ := newGateway()
	err := gw.ImportFile(context.Background(), "u1", "backup.csv", []byte(`{"transactions":[]}`))
	var ierr *core.ImportError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *ImportError for .csv upload, got %v", err)
	}
}

func TestImportRejectsMalformedDocuments(t *testing.T) {
	gw, svc := newGateway()
	seed(t, svc, "u1")

	cases := []struct {
		name    string
		content string
	}{
		{"truncated json", `{"transactions": [`},
		{"not json", `hello`},
		{"missing transactions", `{"settings": {}}`},
		{"transactions not array", `{"transactions": {"a": 1}}`},
		{"transactions null", `{"transactions": null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := gw.ImportFile(context.Background(), "u1", "data.json", []byte(tc.content))
			var ierr *core.ImportError
			if !errors.As(err, &ierr) {
				t.Fatalf("expected *ImportError, got %v", err)
			}
		})
	}

	// Every rejected import leaves the existing collection intact.
	txs, _ := svc.List(context.Background(), "u1")
	if len(txs) != 1 {
		t.Fatalf("rejected import mutated state: %+v", txs)
	}
}

func TestSuggestedFilename(t *testing.T) {
	got := SuggestedFilename("2024-03-10T08:30:00.000Z")
	if got != "financial_data_2024-03-10.json" {
		t.Fatalf("unexpected filename %q", got)
	}
}

// Package export serializes a user's full dataset to a portable JSON
// document and applies such documents back, all-or-nothing.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/services"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
)

// Gateway bridges the transaction service to the JSON document format
// used for exports, file imports and backups.
type Gateway struct {
	svc *services.TransactionService
}

func NewGateway(svc *services.TransactionService) *Gateway {
	return &Gateway{svc: svc}
}

// SuggestedFilename names an export after the day it was taken.
func SuggestedFilename(exportDate string) string {
	day := exportDate
	if t, err := core.ParseInstant(exportDate); err == nil {
		day = t.Format("2006-01-02")
	}
	return "financial_data_" + day + ".json"
}

// ExportJSON renders the acting user's dataset as an indented UTF-8
// JSON document. The document is self-contained: importing it into an
// empty account reproduces the collection exactly.
func (g *Gateway) ExportJSON(ctx context.Context, userID string) ([]byte, storage.Document, error) {
	doc, err := g.svc.Export(ctx, userID)
	if err != nil {
		return nil, storage.Document{}, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, storage.Document{}, fmt.Errorf("encoding export document: %w", err)
	}
	return buf.Bytes(), doc, nil
}

// ImportFile parses an uploaded document and replaces the acting
// user's dataset with its contents. Any parse or validation failure
// leaves the stored collection untouched.
func (g *Gateway) ImportFile(ctx context.Context, userID, filename string, content []byte) error {
	if filename != "" && !strings.EqualFold(filepath.Ext(filename), ".json") {
		return &core.ImportError{Reason: "Please select a valid JSON file"}
	}
	doc, err := ParseDocument(content)
	if err != nil {
		return err
	}
	return g.svc.Import(ctx, userID, doc)
}

// ParseDocument decodes a raw export document. It rejects malformed
// JSON and documents whose transactions field is missing or not an
// array before any record-level validation runs.
func ParseDocument(content []byte) (storage.Document, error) {
	// Probe the shape first so a transactions field holding e.g. an
	// object reports a shape error rather than a decode error.
	var probe struct {
		Transactions json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(content, &probe); err != nil {
		return storage.Document{}, &core.ImportError{Reason: "Invalid file format. Please select a valid backup file", Err: err}
	}
	trimmed := bytes.TrimSpace(probe.Transactions)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return storage.Document{}, &core.ImportError{Reason: "Invalid data format: transactions field must be an array"}
	}

	var doc storage.Document
	if err := json.Unmarshal(content, &doc); err != nil {
		return storage.Document{}, &core.ImportError{Reason: "Invalid file format. Please select a valid backup file", Err: err}
	}
	return doc, nil
}

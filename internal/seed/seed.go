// Package seed loads portfolio documents from JSON or YAML files and writes
// them to a store.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/portfolio-site/internal/db"
	"github.com/jonathan/portfolio-site/internal/schemas"
	"github.com/jonathan/portfolio-site/internal/types"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a portfolio document. Files ending in .yaml or .yml are YAML;
// everything else is JSON. The document must satisfy the portfolio schema.
func LoadFile(path string) (*types.PortfolioSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON validates and decodes a JSON portfolio document.
func ParseJSON(data []byte) (*types.PortfolioSnapshot, error) {
	if err := schemas.ValidatePortfolio(data); err != nil {
		return nil, fmt.Errorf("invalid portfolio document: %w", err)
	}
	var snap types.PortfolioSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio: %w", err)
	}
	return &snap, nil
}

// ParseYAML converts a YAML portfolio document to JSON and parses that, so
// both formats pass the same schema.
func ParseYAML(data []byte) (*types.PortfolioSnapshot, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio YAML: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert portfolio YAML: %w", err)
	}
	return ParseJSON(asJSON)
}

// Replace stores snap, overwriting any existing portfolio.
func Replace(ctx context.Context, store db.Store, snap *types.PortfolioSnapshot) error {
	return store.UpsertPortfolio(ctx, snap)
}

// IfEmpty stores snap only when the store holds no portfolio yet. It reports
// whether anything was written.
func IfEmpty(ctx context.Context, store db.Store, snap *types.PortfolioSnapshot) (bool, error) {
	existing, err := store.GetPortfolio(ctx)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if err := store.UpsertPortfolio(ctx, snap); err != nil {
		return false, err
	}
	return true, nil
}

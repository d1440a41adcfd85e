package scraper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coolviki/paywise/model"
	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

//go:generate moq -out extractor_mocks_test.go . Extractor

// Extractor turns the pages of one bank into candidate records
type Extractor interface {
	Extract(ctx context.Context, bankCode string) (Extraction, error)
}

// Extraction ...
type Extraction struct {
	Benefits  []model.ScrapedBenefit
	Campaigns []model.ScrapedCampaign
}

// FileExtractor reads candidates from <dir>/<bank code>.yaml
type FileExtractor struct {
	dir string
}

var _ Extractor = &FileExtractor{}

// NewFileExtractor ...
func NewFileExtractor(dir string) *FileExtractor {
	return &FileExtractor{dir: dir}
}

type fileBenefit struct {
	Card        string  `yaml:"card"`
	Brand       string  `yaml:"brand"`
	Rate        float64 `yaml:"rate"`
	Type        string  `yaml:"type"`
	Description string  `yaml:"description"`
	SourceURL   string  `yaml:"source_url"`
}

type fileCampaign struct {
	Card        string  `yaml:"card"`
	Brand       string  `yaml:"brand"`
	Rate        float64 `yaml:"rate"`
	Type        string  `yaml:"type"`
	StartDate   string  `yaml:"start_date"`
	EndDate     string  `yaml:"end_date"`
	Description string  `yaml:"description"`
	TermsURL    string  `yaml:"terms_url"`
	SourceURL   string  `yaml:"source_url"`
}

type fileSource struct {
	Benefits  []fileBenefit  `yaml:"benefits"`
	Campaigns []fileCampaign `yaml:"campaigns"`
}

func optional(s string) sql.NullString {
	return sql.NullString{Valid: s != "", String: s}
}

const dateLayout = "2006-01-02"

// Extract ...
func (e *FileExtractor) Extract(_ context.Context, bankCode string) (Extraction, error) {
	filename := filepath.Join(e.dir, bankCode+".yaml")
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Extraction{}, fmt.Errorf("no source file for bank %s: %w", bankCode, err)
	}
	if err != nil {
		return Extraction{}, err
	}

	var source fileSource
	if err := yaml.Unmarshal(data, &source); err != nil {
		return Extraction{}, fmt.Errorf("parse %s: %w", filename, err)
	}

	var result Extraction
	for _, b := range source.Benefits {
		result.Benefits = append(result.Benefits, model.ScrapedBenefit{
			CardName:    b.Card,
			BrandName:   b.Brand,
			BenefitRate: decimal.NewFromFloat(b.Rate),
			BenefitType: b.Type,
			Description: optional(b.Description),
			SourceURL:   optional(b.SourceURL),
		})
	}

	for i, c := range source.Campaigns {
		start, err := time.Parse(dateLayout, c.StartDate)
		if err != nil {
			return Extraction{}, fmt.Errorf("%s: campaigns[%d].start_date: %w", filename, i, err)
		}
		end, err := time.Parse(dateLayout, c.EndDate)
		if err != nil {
			return Extraction{}, fmt.Errorf("%s: campaigns[%d].end_date: %w", filename, i, err)
		}

		result.Campaigns = append(result.Campaigns, model.ScrapedCampaign{
			CardName:    c.Card,
			BrandName:   c.Brand,
			BenefitRate: decimal.NewFromFloat(c.Rate),
			BenefitType: c.Type,
			StartDate:   start,
			EndDate:     end,
			Description: optional(c.Description),
			TermsURL:    optional(c.TermsURL),
			SourceURL:   optional(c.SourceURL),
		})
	}
	return result, nil
}

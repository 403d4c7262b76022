// Package export renders stored ideas for offline review.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"ideabox/internal/models"
	"ideabox/internal/repositories"
)

var csvHeader = []string{"ID", "Email", "Category", "Idea", "Submitted At"}

// WriteCSV writes one row per idea under a fixed header.
func WriteCSV(w io.Writer, ideas []models.Idea) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, idea := range ideas {
		record := []string{
			strconv.FormatInt(idea.ID, 10),
			idea.Email,
			idea.Category,
			idea.Body,
			idea.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes ideas as an indented JSON array.
func WriteJSON(w io.Writer, ideas []models.Idea) error {
	if ideas == nil {
		ideas = []models.Idea{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(ideas)
}

// WriteStats prints the totals and per-category counts.
func WriteStats(w io.Writer, stats models.Stats) error {
	if _, err := fmt.Fprintf(w, "Total ideas: %d\n", stats.TotalIdeas); err != nil {
		return err
	}
	for _, c := range stats.ByCategory {
		if _, err := fmt.Fprintf(w, "  %s: %d\n", c.Category, c.Count); err != nil {
			return err
		}
	}
	return nil
}

// FileNames returns the CSV and JSON paths for an export taken at t.
func FileNames(dir, prefix string, t time.Time) (string, string) {
	stamp := t.Format("20060102_150405")
	base := filepath.Join(dir, fmt.Sprintf("%s_%s", prefix, stamp))
	return base + ".csv", base + ".json"
}

// Exporter reads everything from the idea store and writes both formats.
type Exporter struct {
	ideaRepo repositories.IdeaRepository
	out      io.Writer
}

func NewExporter(ideaRepo repositories.IdeaRepository, out io.Writer) *Exporter {
	return &Exporter{ideaRepo: ideaRepo, out: out}
}

type Result struct {
	CSVPath  string
	JSONPath string
	Count    int
}

func (e *Exporter) Run(ctx context.Context, dir, prefix string, now time.Time) (*Result, error) {
	total, err := e.ideaRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count ideas: %w", err)
	}
	byCategory, err := e.ideaRepo.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	if err := WriteStats(e.out, models.Stats{TotalIdeas: total, ByCategory: byCategory}); err != nil {
		return nil, err
	}

	ideas, err := e.ideaRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ideas: %w", err)
	}

	csvPath, jsonPath := FileNames(dir, prefix, now)
	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, ideas) }); err != nil {
		return nil, err
	}
	if err := writeFile(jsonPath, func(w io.Writer) error { return WriteJSON(w, ideas) }); err != nil {
		return nil, err
	}

	log.Info().Int("count", len(ideas)).Str("csv", csvPath).Str("json", jsonPath).Msg("Ideas exported")
	return &Result{CSVPath: csvPath, JSONPath: jsonPath, Count: len(ideas)}, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

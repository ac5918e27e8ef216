package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/locallens/internal/burndown"
	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/repository"
	"github.com/andresuchdata/locallens/internal/trend"
	"github.com/rs/zerolog/log"
)

// TrendService backfills historical interest for every mapped keyword using
// the same synthesizer the forecast runner uses.
type TrendService struct {
	catalog repository.CatalogReader
	writer  repository.TrendWriter
	synth   *trend.Synthesizer
}

func NewTrendService(catalog repository.CatalogReader, writer repository.TrendWriter, synth *trend.Synthesizer) *TrendService {
	return &TrendService{catalog: catalog, writer: writer, synth: synth}
}

// Backfill writes one interest value per day in [from, to] for every mapped
// keyword and returns how many points were written.
func (s *TrendService) Backfill(ctx context.Context, from, to time.Time) (int, error) {
	from, to = burndown.Day(from), burndown.Day(to)
	if to.Before(from) {
		return 0, fmt.Errorf("backfill range ends %s before it starts %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	mapping, err := s.catalog.GetTrendMapping(ctx)
	if err != nil {
		return 0, fmt.Errorf("get trend mapping: %w", err)
	}

	seen := make(map[string]struct{})
	keywords := make([]string, 0, len(mapping))
	for _, kw := range mapping {
		if _, dup := seen[kw]; dup || kw == "" {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	written := 0
	for _, kw := range keywords {
		values := s.synth.Synthesize(dates, kw)
		points := make([]domain.TrendPoint, len(dates))
		for i, d := range dates {
			points[i] = domain.TrendPoint{Keyword: kw, Date: d, Interest: values[i]}
		}
		if err := s.writer.SaveTrend(ctx, points); err != nil {
			return written, fmt.Errorf("save trend %q: %w", kw, err)
		}
		written += len(points)

		log.Info().
			Str("keyword", kw).
			Str("category", s.synth.Table().Lookup(kw).Category).
			Int("points", len(points)).
			Msg("trends: backfilled")
	}
	return written, nil
}

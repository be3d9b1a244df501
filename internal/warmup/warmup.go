// Package warmup loads the configured program curricula at startup:
// fetching each admission page, extracting the academic plan text and
// parsing it into a curriculum, concurrently across programs.
package warmup

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abitbot/itmo-tgbot-go/internal/curriculum"
	"github.com/abitbot/itmo-tgbot-go/internal/data"
	"github.com/abitbot/itmo-tgbot-go/internal/logger"
	"github.com/abitbot/itmo-tgbot-go/internal/metrics"
	"github.com/abitbot/itmo-tgbot-go/internal/scraper"
)

// Fetcher retrieves a program's academic plan document.
type Fetcher interface {
	FetchProgram(ctx context.Context, pageURL, fallbackName string) (*scraper.ProgramDocument, error)
}

// ExtractFunc turns a fetched PDF document into text lines.
type ExtractFunc func(data []byte) ([]string, error)

// Options configures curriculum loading.
type Options struct {
	Metrics *metrics.Metrics // optional
}

// Load fetches and parses every configured program concurrently and returns
// the curricula keyed by program ID. A single failing program is logged and
// skipped so one broken document does not take the whole bot down; zero
// successfully loaded programs is fatal.
func Load(
	ctx context.Context,
	fetcher Fetcher,
	extract ExtractFunc,
	programs []data.ProgramSource,
	log *logger.Logger,
	opts Options,
) (map[string]*curriculum.ProgramCurriculum, error) {
	log = log.WithModule("warmup")

	var mu sync.Mutex
	curricula := make(map[string]*curriculum.ProgramCurriculum, len(programs))
	var lastErr error

	g, ctx := errgroup.WithContext(ctx)
	for _, program := range programs {
		program := program
		g.Go(func() error {
			cur, err := loadProgram(ctx, fetcher, extract, program, log, opts.Metrics)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithError(err).WithField("program_id", program.ID).Error("Failed to load program")
				lastErr = err
				return nil
			}
			curricula[program.ID] = cur
			return nil
		})
	}
	_ = g.Wait()

	if len(curricula) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, errors.New("no programs configured")
	}

	return curricula, nil
}

func loadProgram(
	ctx context.Context,
	fetcher Fetcher,
	extract ExtractFunc,
	program data.ProgramSource,
	log *logger.Logger,
	m *metrics.Metrics,
) (*curriculum.ProgramCurriculum, error) {
	start := time.Now()

	doc, err := fetcher.FetchProgram(ctx, program.URL, program.Name)
	if m != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		m.ScraperRequestsTotal.WithLabelValues(program.ID, status).Inc()
		m.ScraperDurationSeconds.WithLabelValues(program.ID).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	lines, err := extract(doc.PDF)
	if err != nil {
		if m != nil {
			m.ParseErrors.WithLabelValues(program.ID).Inc()
		}
		return nil, err
	}

	cur, err := curriculum.ParseLines(lines, doc.Name)
	if err != nil {
		if m != nil {
			m.ParseErrors.WithLabelValues(program.ID).Inc()
		}
		return nil, err
	}

	if m != nil {
		m.ParsedCourses.WithLabelValues(program.ID).Set(float64(len(cur.Courses)))
	}
	log.WithFields(map[string]any{
		"program_id": program.ID,
		"courses":    len(cur.Courses),
		"semesters":  cur.DurationSemesters,
		"elapsed":    time.Since(start).String(),
	}).Info("Program curriculum loaded")

	return cur, nil
}

// Command plan is an offline study plan tool: it fetches an academic plan,
// parses it and prints the per-semester course plan for a given background
// without talking to Telegram. Useful for checking parser output against a
// live admission page.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abitbot/itmo-tgbot-go/internal/data"
	"github.com/abitbot/itmo-tgbot-go/internal/extract"
	"github.com/abitbot/itmo-tgbot-go/internal/lemma"
	"github.com/abitbot/itmo-tgbot-go/internal/logger"
	"github.com/abitbot/itmo-tgbot-go/internal/recommend"
	"github.com/abitbot/itmo-tgbot-go/internal/scraper"
	"github.com/abitbot/itmo-tgbot-go/internal/warmup"
)

var (
	programFlag    = flag.String("program", "ai", "Program ID to plan for (ai, ai_product)")
	backgroundFlag = flag.String("background", "", "Background levels as area=level pairs, e.g. math=4,ai=2")
	strategyFlag   = flag.String("strategy", "deepen", "Recommendation strategy (deepen, broaden)")
	areasFlag      = flag.String("areas", "./knowledge_areas.yaml", "Knowledge area configuration file")
	timeoutFlag    = flag.Duration("timeout", 60*time.Second, "Scraper request timeout")
	retriesFlag    = flag.Int("retries", 3, "Scraper retry attempts")
)

func main() {
	flag.Parse()

	log := logger.New("warn")

	strategy, err := recommend.ParseStrategy(*strategyFlag)
	if err != nil {
		fatalf("invalid strategy %q, want deepen or broaden", *strategyFlag)
	}

	background, err := parseBackgroundFlag(*backgroundFlag)
	if err != nil {
		fatalf("invalid background: %v", err)
	}

	program, ok := data.ProgramByID(*programFlag)
	if !ok {
		fatalf("unknown program %q", *programFlag)
	}

	areas, err := recommend.LoadAreas(*areasFlag)
	if err != nil {
		fatalf("failed to load knowledge areas: %v", err)
	}

	client := scraper.NewClient(*timeoutFlag, *retriesFlag)
	curricula, err := warmup.Load(
		context.Background(),
		client,
		extract.Lines,
		[]data.ProgramSource{program},
		log,
		warmup.Options{},
	)
	if err != nil {
		fatalf("failed to load academic plan: %v", err)
	}

	engine := recommend.NewEngine(curricula, areas, lemma.NewSnowball(), log)

	plan, err := engine.StudyPlan(program.ID, background, strategy)
	if err != nil {
		fatalf("failed to build study plan: %v", err)
	}

	cur := curricula[program.ID]
	fmt.Printf("Study plan for %s (%d semesters, strategy: %s)\n", cur.ProgramName, cur.DurationSemesters, strategy)
	for semester := 1; semester <= cur.DurationSemesters; semester++ {
		fmt.Printf("\nSemester %d:\n", semester)
		courses := plan[semester]
		if len(courses) == 0 {
			fmt.Println("  (no courses)")
			continue
		}
		for _, c := range courses {
			kind := "elective"
			if c.IsCompulsory {
				kind = "compulsory"
			}
			fmt.Printf("  - %s [%s, %d credits]\n", c.Name, kind, c.Credits)
		}
	}
}

// parseBackgroundFlag parses "math=4,ai=2" into a background map.
func parseBackgroundFlag(s string) (map[string]int, error) {
	background := map[string]int{}
	if s == "" {
		return background, nil
	}
	for _, pair := range strings.Split(s, ",") {
		area, levelStr, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return nil, fmt.Errorf("malformed pair %q, want area=level", pair)
		}
		level, err := strconv.Atoi(levelStr)
		if err != nil || level < 0 || level > recommend.MaxBackgroundLevel {
			return nil, fmt.Errorf("level for %q must be an integer in [0, %d]", area, recommend.MaxBackgroundLevel)
		}
		background[area] = level
	}
	return background, nil
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

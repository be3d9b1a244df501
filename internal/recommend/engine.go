package recommend

import (
	"fmt"
	"sort"

	"github.com/abitbot/itmo-tgbot-go/internal/curriculum"
	apperrors "github.com/abitbot/itmo-tgbot-go/internal/errors"
	"github.com/abitbot/itmo-tgbot-go/internal/lemma"
	"github.com/abitbot/itmo-tgbot-go/internal/logger"
)

// Strategy selects how background scores weigh into course scores.
type Strategy string

const (
	// StrategyDeepen favors areas the user is already strong in.
	StrategyDeepen Strategy = "deepen"
	// StrategyBroaden favors areas the user is weak in.
	StrategyBroaden Strategy = "broaden"
)

// MaxBackgroundLevel is the upper bound of a self-reported skill level.
const MaxBackgroundLevel = 5

// studyPlanPull is how many electives a study plan requests internally
// before filtering them into semesters.
const studyPlanPull = 10

// ParseStrategy validates a raw strategy string.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDeepen, StrategyBroaden:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidStrategy, s)
	}
}

// Engine scores and ranks elective courses against a learner background.
// It only reads curricula and the area index; both are immutable after
// construction, so one engine serves concurrent requests.
type Engine struct {
	curricula  map[string]*curriculum.ProgramCurriculum
	normalizer lemma.Normalizer
	index      *AreaIndex
	log        *logger.Logger
}

// NewEngine creates a recommendation engine over the given curricula and
// knowledge area configuration.
func NewEngine(
	curricula map[string]*curriculum.ProgramCurriculum,
	areas map[string][]string,
	n lemma.Normalizer,
	log *logger.Logger,
) *Engine {
	return &Engine{
		curricula:  curricula,
		normalizer: n,
		index:      BuildAreaIndex(n, areas),
		log:        log.WithModule("recommend"),
	}
}

// Curriculum returns the curriculum registered under programID.
func (e *Engine) Curriculum(programID string) (*curriculum.ProgramCurriculum, bool) {
	p, ok := e.curricula[programID]
	return p, ok
}

// Programs returns the registered program IDs in sorted order.
func (e *Engine) Programs() []string {
	ids := make([]string, 0, len(e.curricula))
	for id := range e.curricula {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AreaNames returns the knowledge area names of the engine's index.
func (e *Engine) AreaNames() []string {
	return e.index.Areas()
}

type scoredCourse struct {
	course curriculum.Course
	score  int
}

// RecommendElectives ranks the elective courses of a program against the
// learner background, a map from area name to a skill level in [0, 5]
// (absent areas count as 0). Courses scoring zero or less are dropped.
// The sort is stable: equal scores keep their curriculum order.
//
// An unknown programID is a soft fail and yields an empty result; an
// invalid strategy is a programming error and fails before any scoring.
func (e *Engine) RecommendElectives(
	programID string,
	background map[string]int,
	maxCourses int,
	strategy Strategy,
) ([]curriculum.Course, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	program, ok := e.curricula[programID]
	if !ok {
		e.log.WithField("program_id", programID).Debug("Unknown program requested")
		return nil, nil
	}

	var scored []scoredCourse
	for _, course := range program.Electives() {
		lemmas := lemma.TextLemmas(e.normalizer, course.Name)

		score := 0
		for _, area := range e.index.MatchingAreas(lemmas) {
			level := background[area]
			if strategy == StrategyDeepen {
				score += level
			} else {
				score += MaxBackgroundLevel - level
			}
		}

		if score > 0 {
			scored = append(scored, scoredCourse{course: course, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if maxCourses >= 0 && len(scored) > maxCourses {
		scored = scored[:maxCourses]
	}

	out := make([]curriculum.Course, len(scored))
	for i, sc := range scored {
		out[i] = sc.course
	}
	return out, nil
}

// StudyPlan builds a semester-indexed plan: each semester's compulsory
// courses in curriculum order, followed by recommended electives of that
// semester in ranked order. Every semester from 1 to the program duration
// is present in the result, empty semesters included. An unknown program
// yields an empty map.
func (e *Engine) StudyPlan(
	programID string,
	background map[string]int,
	strategy Strategy,
) (map[int][]curriculum.Course, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	program, ok := e.curricula[programID]
	if !ok {
		return map[int][]curriculum.Course{}, nil
	}

	recommended, err := e.RecommendElectives(programID, background, studyPlanPull, strategy)
	if err != nil {
		return nil, err
	}

	plan := make(map[int][]curriculum.Course, program.DurationSemesters)
	for semester := 1; semester <= program.DurationSemesters; semester++ {
		courses := program.CompulsoryBySemester(semester)
		if courses == nil {
			courses = []curriculum.Course{}
		}
		for _, elective := range recommended {
			if elective.Semester == semester {
				courses = append(courses, elective)
			}
		}
		plan[semester] = courses
	}
	return plan, nil
}

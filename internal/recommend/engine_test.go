package recommend

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abitbot/itmo-tgbot-go/internal/curriculum"
	apperrors "github.com/abitbot/itmo-tgbot-go/internal/errors"
	"github.com/abitbot/itmo-tgbot-go/internal/logger"
)

// lowercaser keeps lemmas predictable in tests, no linguistic model needed.
type lowercaser struct{}

func (lowercaser) Normalize(word string) string { return strings.ToLower(word) }

func testAreas() map[string][]string {
	return map[string][]string{
		"ai":   {"machine", "learning", "intelligence", "нейронный"},
		"data": {"data", "данные", "аналитика"},
	}
}

func testEngine(t *testing.T, curricula map[string]*curriculum.ProgramCurriculum) *Engine {
	t.Helper()
	log := logger.NewWithWriter("error", io.Discard)
	return NewEngine(curricula, testAreas(), lowercaser{}, log)
}

func aiCurriculum() *curriculum.ProgramCurriculum {
	return &curriculum.ProgramCurriculum{
		ProgramName: "AI",
		Courses: []curriculum.Course{
			{ID: "1", Name: "Math", Semester: 1, IsCompulsory: true},
			{ID: "2", Name: "Machine Learning", Semester: 1},
			{ID: "3", Name: "Leadership", Semester: 1},
		},
		DurationSemesters: 1,
	}
}

func TestRecommendElectivesEndToEnd(t *testing.T) {
	e := testEngine(t, map[string]*curriculum.ProgramCurriculum{"ai": aiCurriculum()})
	background := map[string]int{"ai": 4}

	recommended, err := e.RecommendElectives("ai", background, 5, StrategyDeepen)
	require.NoError(t, err)

	// Leadership matches no area, scores 0 and is dropped entirely.
	require.Len(t, recommended, 1)
	assert.Equal(t, "Machine Learning", recommended[0].Name)

	plan, err := e.StudyPlan("ai", background, StrategyDeepen)
	require.NoError(t, err)
	require.Len(t, plan, 1)

	names := make([]string, 0, len(plan[1]))
	for _, c := range plan[1] {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Math", "Machine Learning"}, names)
}

func TestRecommendElectivesUnknownProgram(t *testing.T) {
	e := testEngine(t, map[string]*curriculum.ProgramCurriculum{"ai": aiCurriculum()})

	recommended, err := e.RecommendElectives("missing", map[string]int{"ai": 3}, 5, StrategyDeepen)
	require.NoError(t, err)
	assert.Empty(t, recommended)

	plan, err := e.StudyPlan("missing", map[string]int{"ai": 3}, StrategyBroaden)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestRecommendElectivesInvalidStrategy(t *testing.T) {
	e := testEngine(t, map[string]*curriculum.ProgramCurriculum{"ai": aiCurriculum()})

	_, err := e.RecommendElectives("ai", map[string]int{"ai": 3}, 5, Strategy("unknown"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStrategy))

	_, err = e.StudyPlan("ai", map[string]int{"ai": 3}, Strategy(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStrategy))
}

// rankOf returns the position of the course with the given ID in the ranked
// output, or droppedRank when the course did not qualify at all.
const droppedRank = 99

func rankOf(t *testing.T, e *Engine, background map[string]int, strategy Strategy, id string) int {
	t.Helper()
	recommended, err := e.RecommendElectives("ai", background, 5, strategy)
	require.NoError(t, err)
	for i, c := range recommended {
		if c.ID == id {
			return i
		}
	}
	return droppedRank
}

func TestScoringMonotonicity(t *testing.T) {
	// "Data Analytics" is a fixed reference (score 3 under deepen, 2 under
	// broaden); "Machine Learning" moves with the ai background level.
	cur := &curriculum.ProgramCurriculum{
		ProgramName: "AI",
		Courses: []curriculum.Course{
			{ID: "ref", Name: "Data Analytics", Semester: 1},
			{ID: "ml", Name: "Machine Learning", Semester: 1},
		},
		DurationSemesters: 1,
	}
	e := testEngine(t, map[string]*curriculum.ProgramCurriculum{"ai": cur})

	// deepen: raising background[ai] never worsens the course's rank.
	prev := droppedRank
	for level := 0; level <= MaxBackgroundLevel; level++ {
		rank := rankOf(t, e, map[string]int{"data": 3, "ai": level}, StrategyDeepen, "ml")
		assert.LessOrEqual(t, rank, prev, "deepen level %d", level)
		prev = rank
	}

	// broaden: raising background[ai] never improves the course's rank.
	prev = 0
	for level := 0; level <= MaxBackgroundLevel; level++ {
		rank := rankOf(t, e, map[string]int{"data": 3, "ai": level}, StrategyBroaden, "ml")
		assert.GreaterOrEqual(t, rank, prev, "broaden level %d", level)
		prev = rank
	}

	// Boundary values: deepen at level 0 drops, broaden at level 5 drops.
	assert.Equal(t, droppedRank, rankOf(t, e, map[string]int{"data": 0}, StrategyDeepen, "ml"))
	assert.Equal(t, droppedRank, rankOf(t, e, map[string]int{"data": 0, "ai": 5}, StrategyBroaden, "ml"))
}

func TestStableTieOrdering(t *testing.T) {
	cur := &curriculum.ProgramCurriculum{
		ProgramName: "AI",
		Courses: []curriculum.Course{
			{ID: "1", Name: "Machine Learning", Semester: 1},
			{ID: "2", Name: "Learning Analytics", Semester: 1},
			{ID: "3", Name: "Intelligence Systems", Semester: 2},
		},
		DurationSemesters: 2,
	}
	e := testEngine(t, map[string]*curriculum.ProgramCurriculum{"ai": cur})

	// All three match only the "ai" area, so all scores tie.
	recommended, err := e.RecommendElectives("ai", map[string]int{"ai": 3}, 5, StrategyDeepen)
	require.NoError(t, err)
	require.Len(t, recommended, 3)

	assert.Equal(t, "1", recommended[0].ID)
	assert.Equal(t, "2", recommended[1].ID)
	assert.Equal(t, "3", recommended[2].ID)
}

func TestMultipleAreasAccumulate(t *testing.T) {
	cur := &curriculum.ProgramCurriculum{
		ProgramName: "AI",
		Courses: []curriculum.Course{
			{ID: "1", Name: "Machine Learning on Data", Semester: 1},
			{ID: "2", Name: "Machine Learning", Semester: 1},
		},
		DurationSemesters: 1,
	}
	e := testEngine(t, map[string]*curriculum.ProgramCurriculum{"ai": cur})

	// Course 1 matches both areas and accumulates both contributions,
	// ranking it above course 2 despite appearing at the same score base.
	recommended, err := e.RecommendElectives("ai", map[string]int{"ai": 2, "data": 3}, 5, StrategyDeepen)
	require.NoError(t, err)
	require.Len(t, recommended, 2)
	assert.Equal(t, "1", recommended[0].ID)
	assert.Equal(t, "2", recommended[1].ID)
}

func TestRecommendElectivesMaxCourses(t *testing.T) {
	cur := &curriculum.ProgramCurriculum{
		ProgramName: "AI",
		Courses: []curriculum.Course{
			{ID: "1", Name: "Machine Learning", Semester: 1},
			{ID: "2", Name: "Learning Systems", Semester: 1},
			{ID: "3", Name: "Intelligence Workshop", Semester: 1},
		},
		DurationSemesters: 1,
	}
	e := testEngine(t, map[string]*curriculum.ProgramCurriculum{"ai": cur})

	recommended, err := e.RecommendElectives("ai", map[string]int{"ai": 1}, 2, StrategyDeepen)
	require.NoError(t, err)
	assert.Len(t, recommended, 2)
}

func TestStudyPlanCompleteness(t *testing.T) {
	cur := &curriculum.ProgramCurriculum{
		ProgramName: "AI",
		Courses: []curriculum.Course{
			{ID: "1", Name: "Math", Semester: 1, IsCompulsory: true},
			// Semester 2 is empty; semester 3 holds one compulsory course.
			{ID: "2", Name: "Thesis", Semester: 3, IsCompulsory: true},
		},
		DurationSemesters: 3,
	}
	e := testEngine(t, map[string]*curriculum.ProgramCurriculum{"ai": cur})

	plan, err := e.StudyPlan("ai", map[string]int{}, StrategyDeepen)
	require.NoError(t, err)

	require.Len(t, plan, 3)
	for semester := 1; semester <= 3; semester++ {
		courses, ok := plan[semester]
		require.True(t, ok, "semester %d missing from plan", semester)
		assert.NotNil(t, courses)
	}
	assert.Empty(t, plan[2])
	require.Len(t, plan[3], 1)
	assert.Equal(t, "Thesis", plan[3][0].Name)
}

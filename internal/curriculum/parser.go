package curriculum

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/abitbot/itmo-tgbot-go/internal/errors"
)

// category is the block a course line belongs to. The source document marks
// block boundaries with heading lines, courses inherit the last seen marker.
type category int

const (
	categoryUnset category = iota
	categoryCompulsory
	categoryElective
)

// Line patterns of the extracted academic plan text. The extraction step
// glues the course code straight onto the course name ("1Воркшоп ... 3108"),
// so course lines are leading digits, non-digit name text and a trailing
// hour count.
var (
	programNameRe = regexp.MustCompile(`ОП\s+(.+)`)
	semesterRe    = regexp.MustCompile(`(\d+)\s+семестр`)
	courseLineRe  = regexp.MustCompile(`^(\d+)([^\d].+?)\s+(\d+)$`)
)

// Category heading labels as they appear in the plan.
const (
	compulsoryLabel   = "Обязательные"
	electivePoolLabel = "Пул выборных"
	electiveLabel     = "Выборные"
)

// parserState carries the cross-line parser state. Both fields are
// forward-only: once set, a marker stays in effect until a new marker of the
// same kind appears. They are never reset between lines, not even when the
// other marker changes.
type parserState struct {
	semester    int // 0 = unset
	category    category
	programName string
	courses     []Course
}

// ParseLines reconstructs a ProgramCurriculum from the extracted text lines
// of an academic plan document. programName is the fallback display name; a
// name found in the document wins over it (last writer wins).
//
// Known upstream-data assumption: category state survives a semester change
// that is not followed by a fresh category heading, so a later-semester
// course can inherit the previous block's category. The source documents
// exhibit exactly this layout, the parser intentionally does not reset.
func ParseLines(lines []string, programName string) (*ProgramCurriculum, error) {
	st := parserState{programName: programName}

	for _, line := range lines {
		st.step(strings.TrimSpace(line))
	}

	if len(st.courses) == 0 {
		return nil, apperrors.NewParseError(programName, len(lines), apperrors.ErrNoCoursesFound)
	}

	maxSemester := 0
	for _, c := range st.courses {
		if c.Semester > maxSemester {
			maxSemester = c.Semester
		}
	}

	return &ProgramCurriculum{
		ProgramName:       st.programName,
		Courses:           st.courses,
		TotalCredits:      0, // not derivable from this document format
		DurationSemesters: maxSemester,
	}, nil
}

// step applies all recognition rules to a single trimmed line. The rules are
// independent checks, not exclusive branches: one line may update state and
// still be examined as a course line.
func (st *parserState) step(line string) {
	if strings.Contains(line, "ОП") {
		if m := programNameRe.FindStringSubmatch(line); m != nil {
			st.programName = strings.TrimSpace(m[1])
		}
	}

	if m := semesterRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
			st.semester = n
		}
	}

	if strings.Contains(line, compulsoryLabel) {
		st.category = categoryCompulsory
	} else if strings.Contains(line, electivePoolLabel) || strings.Contains(line, electiveLabel) {
		st.category = categoryElective
	}

	// Course lines are only meaningful once both markers have been seen.
	if st.semester == 0 || st.category == categoryUnset {
		return
	}

	m := courseLineRe.FindStringSubmatch(line)
	if m == nil {
		return
	}

	hours, err := strconv.Atoi(m[3])
	if err != nil {
		return
	}

	st.courses = append(st.courses, Course{
		ID:            m[1],
		Name:          strings.TrimSpace(m[2]),
		Semester:      st.semester,
		Credits:       0, // credits are not present in this document format
		IsCompulsory:  st.category == categoryCompulsory,
		Prerequisites: []string{},
		WorkloadHours: hours,
	})
}

// Package curriculum defines the course and program curriculum model along
// with the text parser that reconstructs curricula from extracted academic
// plan documents.
package curriculum

// Course represents a single course within a curriculum.
// The ID is the course code as it appears in the source document; it is
// unique within one parsed curriculum but not across programs.
type Course struct {
	ID            string
	Name          string // may carry a bilingual "Russian / English" form
	Semester      int    // 1-based
	Credits       int    // 0 when the source format carries no credit counts
	IsCompulsory  bool
	Prerequisites []string
	Description   string
	WorkloadHours int
}

// ProgramCurriculum represents the entire curriculum for a master's program.
// Courses preserve document order. Values are never mutated after the parser
// hands them out, so concurrent reads are safe.
type ProgramCurriculum struct {
	ProgramName       string
	Courses           []Course
	TotalCredits      int // 0 when not derivable from the source format
	DurationSemesters int // max semester observed among courses
}

// Electives returns all elective courses in document order.
func (p *ProgramCurriculum) Electives() []Course {
	var out []Course
	for _, c := range p.Courses {
		if !c.IsCompulsory {
			out = append(out, c)
		}
	}
	return out
}

// CoursesBySemester returns all courses offered in the given semester.
func (p *ProgramCurriculum) CoursesBySemester(semester int) []Course {
	var out []Course
	for _, c := range p.Courses {
		if c.Semester == semester {
			out = append(out, c)
		}
	}
	return out
}

// CompulsoryBySemester returns the compulsory courses of the given semester.
func (p *ProgramCurriculum) CompulsoryBySemester(semester int) []Course {
	var out []Course
	for _, c := range p.Courses {
		if c.IsCompulsory && c.Semester == semester {
			out = append(out, c)
		}
	}
	return out
}

// ElectivesBySemester returns the elective courses of the given semester.
func (p *ProgramCurriculum) ElectivesBySemester(semester int) []Course {
	var out []Course
	for _, c := range p.Courses {
		if !c.IsCompulsory && c.Semester == semester {
			out = append(out, c)
		}
	}
	return out
}

// FindCourseByID returns the first course with the given ID.
// Course IDs are not guaranteed unique, ties resolve to the first occurrence.
func (p *ProgramCurriculum) FindCourseByID(id string) (Course, bool) {
	for _, c := range p.Courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// SemesterCredits sums the credits of all courses in the given semester.
func (p *ProgramCurriculum) SemesterCredits(semester int) int {
	total := 0
	for _, c := range p.CoursesBySemester(semester) {
		total += c.Credits
	}
	return total
}

// SemesterWorkload sums the workload hours of all courses in the given semester.
func (p *ProgramCurriculum) SemesterWorkload(semester int) int {
	total := 0
	for _, c := range p.CoursesBySemester(semester) {
		total += c.WorkloadHours
	}
	return total
}

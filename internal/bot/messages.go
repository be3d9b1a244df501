package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abitbot/itmo-tgbot-go/internal/curriculum"
)

// User-facing message texts. The bot speaks Russian, matching its audience
// of admission applicants.
const (
	msgGreeting = "Привет! Я помогу тебе выбрать магистерскую программу и составить учебный план.\n\n" +
		"Пожалуйста, выбери программу, которая тебя интересует:"
	msgProgramPlaceholder = "Выберите программу"
	msgUseButtons         = "Пожалуйста, выберите программу, используя предложенные кнопки."
	msgBackgroundPrompt   = "Отлично! Теперь расскажи о своём бэкграунде в следующих областях (оцени от 0 до 5):\n" +
		"• Математика\n" +
		"• Программирование\n" +
		"• Искусственный интеллект\n" +
		"• Работа с данными\n" +
		"• Продуктовая разработка\n\n" +
		"Отправь 5 чисел через пробел. Например: 4 3 2 3 1"
	msgBackgroundInvalid = "Ошибка! Пожалуйста, введи 5 чисел от 0 до 5 через пробел (например: 4 3 2 3 1)."
	msgNoRecommendations = "Не удалось подобрать курсы по вашему бэкграунду."
	msgQuestionsHint     = "Теперь ты можешь задавать вопросы по программе. Например:\n• Какие обязательные курсы в первом семестре?"
	msgQuestionFallback  = "Я пока учусь отвечать на вопросы. Попробуй спросить что-то вроде 'Какие обязательные курсы в первом семестре?'"
	msgNeedStart         = "Программа не выбрана. Пожалуйста, начни заново с /start"
	msgCancel            = "Диалог завершён. Если захочешь начать заново, просто напиши /start."
	msgInternalError     = "Произошла внутренняя ошибка при составлении плана. Пожалуйста, попробуй начать заново: /start"
	msgStrategyUsage     = "Использование: /strategy deepen — углублять сильные стороны, /strategy broaden — закрывать пробелы."
	msgUnknownCommand    = "Неизвестная команда. Начни с /start или заверши диалог через /cancel."
)

// backgroundAreas maps the order of the five requested numbers to knowledge
// area names. Must stay in sync with msgBackgroundPrompt.
var backgroundAreas = []string{"math", "programming", "ai", "data", "product"}

func recommendHeader(programName string) string {
	return fmt.Sprintf("Отлично! Вот рекомендованные курсы для «%s»:", programName)
}

func strategyChanged(strategy string) string {
	return fmt.Sprintf("Стратегия рекомендаций переключена на «%s».", strategy)
}

// formatSemesterElectives renders one semester's recommended electives.
func formatSemesterElectives(semester int, courses []curriculum.Course) string {
	lines := []string{fmt.Sprintf("Семестр %d:", semester)}
	for _, c := range courses {
		lines = append(lines, fmt.Sprintf("• %s (выборный)", c.Name))
	}
	return strings.Join(lines, "\n")
}

// formatCompulsoryAnswer renders the answer to the compulsory-courses
// question for one semester.
func formatCompulsoryAnswer(semester int, courses []curriculum.Course) string {
	if len(courses) == 0 {
		return fmt.Sprintf("Не найдено обязательных курсов в %d семестре.", semester)
	}
	names := make([]string, len(courses))
	for i, c := range courses {
		names[i] = c.Name
	}
	return fmt.Sprintf("Обязательные курсы в %d семестре:\n• %s", semester, strings.Join(names, "\n• "))
}

// groupBySemester splits ranked electives into per-semester buckets,
// keeping rank order inside each bucket, and returns the semesters that
// actually hold courses in ascending order.
func groupBySemester(courses []curriculum.Course) ([]int, map[int][]curriculum.Course) {
	buckets := make(map[int][]curriculum.Course)
	for _, c := range courses {
		buckets[c.Semester] = append(buckets[c.Semester], c)
	}
	semesters := make([]int, 0, len(buckets))
	for s := range buckets {
		semesters = append(semesters, s)
	}
	sort.Ints(semesters)
	return semesters, buckets
}

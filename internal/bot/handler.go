// Package bot implements the Telegram conversation front-end: program
// selection, background survey, elective recommendations and follow-up
// questions about the curriculum.
package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abitbot/itmo-tgbot-go/internal/curriculum"
	"github.com/abitbot/itmo-tgbot-go/internal/data"
	"github.com/abitbot/itmo-tgbot-go/internal/logger"
	"github.com/abitbot/itmo-tgbot-go/internal/metrics"
	"github.com/abitbot/itmo-tgbot-go/internal/ratelimit"
	"github.com/abitbot/itmo-tgbot-go/internal/recommend"
	"github.com/abitbot/itmo-tgbot-go/internal/storage"
)

const recommendedPerRequest = 5

// Sender delivers a prepared Telegram message. *tgbotapi.BotAPI satisfies
// it; tests substitute a fake.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler drives the conversation state machine. State lives in storage so
// the process can restart without losing dialogues.
type Handler struct {
	sender  Sender
	db      *storage.DB
	engine  *recommend.Engine
	metrics *metrics.Metrics
	limiter *ratelimit.PerChat
	log     *logger.Logger
}

func NewHandler(sender Sender, db *storage.DB, engine *recommend.Engine, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		sender:  sender,
		db:      db,
		engine:  engine,
		metrics: m,
		log:     log.WithModule("bot"),
	}
}

// SetLimiter enables per-chat rate limiting. Updates from chats over
// their budget are dropped silently.
func (h *Handler) SetLimiter(limiter *ratelimit.PerChat) {
	h.limiter = limiter
}

// HandleUpdate processes one incoming Telegram update. Non-text updates are
// ignored.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	if h.limiter != nil && !h.limiter.Allow(msg.Chat.ID) {
		h.log.WithField("chat_id", msg.Chat.ID).Debug("Rate limited update dropped")
		if h.metrics != nil {
			h.metrics.UpdatesTotal.WithLabelValues("limited", "ignored").Inc()
		}
		return
	}

	start := time.Now()
	status := "success"
	state, err := h.dispatch(ctx, msg)
	if err != nil {
		status = "error"
		h.log.WithError(err).WithField("chat_id", msg.Chat.ID).Error("failed to handle update")
	}
	if h.metrics != nil {
		h.metrics.UpdatesTotal.WithLabelValues(state, status).Inc()
		h.metrics.UpdateDurationSeconds.WithLabelValues(state).Observe(time.Since(start).Seconds())
	}
}

func (h *Handler) dispatch(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return "command", h.handleStart(ctx, chatID)
		case "cancel":
			return "command", h.handleCancel(ctx, chatID)
		case "strategy":
			return "command", h.handleStrategy(ctx, chatID, msg.CommandArguments())
		default:
			return "command", h.reply(chatID, msgUnknownCommand)
		}
	}

	session, err := h.db.GetSession(ctx, chatID)
	if err != nil {
		return "none", err
	}
	if session == nil {
		return "none", h.reply(chatID, msgNeedStart)
	}

	switch session.State {
	case storage.StateProgram:
		return session.State, h.handleProgramChoice(ctx, session, msg.Text)
	case storage.StateBackground:
		return session.State, h.handleBackground(ctx, session, msg.Text)
	case storage.StateQuestions:
		return session.State, h.handleQuestion(ctx, session, msg.Text)
	default:
		return session.State, h.reply(chatID, msgNeedStart)
	}
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) error {
	session := &storage.Session{
		ChatID:   chatID,
		State:    storage.StateProgram,
		Strategy: string(recommend.StrategyDeepen),
	}
	if err := h.db.SaveSession(ctx, session); err != nil {
		return err
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(data.Programs))
	for _, p := range data.Programs {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(p.Title)))
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	keyboard.InputFieldPlaceholder = msgProgramPlaceholder

	out := tgbotapi.NewMessage(chatID, msgGreeting)
	out.ReplyMarkup = keyboard
	_, err := h.sender.Send(out)
	return err
}

func (h *Handler) handleCancel(ctx context.Context, chatID int64) error {
	if err := h.db.DeleteSession(ctx, chatID); err != nil {
		return err
	}
	out := tgbotapi.NewMessage(chatID, msgCancel)
	out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	_, err := h.sender.Send(out)
	return err
}

func (h *Handler) handleStrategy(ctx context.Context, chatID int64, arg string) error {
	strategy, err := recommend.ParseStrategy(strings.TrimSpace(arg))
	if err != nil {
		return h.reply(chatID, msgStrategyUsage)
	}

	session, dberr := h.db.GetSession(ctx, chatID)
	if dberr != nil {
		return dberr
	}
	if session == nil {
		return h.reply(chatID, msgNeedStart)
	}
	session.Strategy = string(strategy)
	if err := h.db.SaveSession(ctx, session); err != nil {
		return err
	}
	return h.reply(chatID, strategyChanged(string(strategy)))
}

func (h *Handler) handleProgramChoice(ctx context.Context, session *storage.Session, text string) error {
	program, ok := data.ProgramByTitle(strings.TrimSpace(text))
	if !ok {
		return h.reply(session.ChatID, msgUseButtons)
	}

	session.ProgramID = program.ID
	session.ProgramName = program.Title
	session.State = storage.StateBackground
	if err := h.db.SaveSession(ctx, session); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(session.ChatID, msgBackgroundPrompt)
	out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	_, err := h.sender.Send(out)
	return err
}

func (h *Handler) handleBackground(ctx context.Context, session *storage.Session, text string) error {
	background, ok := parseBackground(text)
	if !ok {
		return h.reply(session.ChatID, msgBackgroundInvalid)
	}

	strategy, err := recommend.ParseStrategy(session.Strategy)
	if err != nil {
		strategy = recommend.StrategyDeepen
	}

	scoreStart := time.Now()
	courses, err := h.engine.RecommendElectives(session.ProgramID, background, recommendedPerRequest, strategy)
	if h.metrics != nil {
		h.metrics.RecommendationDuration.Observe(time.Since(scoreStart).Seconds())
		h.metrics.RecommendationsTotal.WithLabelValues(string(strategy), recommendOutcome(courses, err)).Inc()
	}
	if err != nil {
		h.log.WithError(err).WithField("program_id", session.ProgramID).Error("recommendation failed")
		return h.reply(session.ChatID, msgInternalError)
	}
	if len(courses) == 0 {
		if derr := h.db.DeleteSession(ctx, session.ChatID); derr != nil {
			return derr
		}
		return h.reply(session.ChatID, msgNoRecommendations)
	}

	session.Background = background
	session.State = storage.StateQuestions
	if err := h.db.SaveSession(ctx, session); err != nil {
		return err
	}

	if err := h.reply(session.ChatID, recommendHeader(session.ProgramName)); err != nil {
		return err
	}
	semesters, buckets := groupBySemester(courses)
	for _, s := range semesters {
		if err := h.reply(session.ChatID, formatSemesterElectives(s, buckets[s])); err != nil {
			return err
		}
	}
	return h.reply(session.ChatID, msgQuestionsHint)
}

func (h *Handler) handleQuestion(ctx context.Context, session *storage.Session, text string) error {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "обязательн") {
		return h.reply(session.ChatID, msgQuestionFallback)
	}
	semester, ok := parseSemester(lower)
	if !ok {
		return h.reply(session.ChatID, msgQuestionFallback)
	}

	cur, ok := h.engine.Curriculum(session.ProgramID)
	if !ok {
		return h.reply(session.ChatID, msgNeedStart)
	}
	return h.reply(session.ChatID, formatCompulsoryAnswer(semester, cur.CompulsoryBySemester(semester)))
}

func recommendOutcome(courses []curriculum.Course, err error) string {
	switch {
	case err != nil:
		return "error"
	case len(courses) == 0:
		return "empty"
	default:
		return "ok"
	}
}

func (h *Handler) reply(chatID int64, text string) error {
	_, err := h.sender.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// parseBackground expects exactly five whitespace-separated integers in
// [0, 5], one per knowledge area in backgroundAreas order.
func parseBackground(text string) (map[string]int, bool) {
	fields := strings.Fields(text)
	if len(fields) != len(backgroundAreas) {
		return nil, false
	}
	background := make(map[string]int, len(backgroundAreas))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 || v > recommend.MaxBackgroundLevel {
			return nil, false
		}
		background[backgroundAreas[i]] = v
	}
	return background, true
}

var semesterWords = map[string]int{
	"перв":    1,
	"втор":    2,
	"трет":    3,
	"четверт": 4,
}

// parseSemester pulls a semester number out of a question, accepting both
// digits and Russian ordinals.
func parseSemester(lower string) (int, bool) {
	for _, f := range strings.Fields(lower) {
		if n, err := strconv.Atoi(strings.Trim(f, ".,!?")); err == nil && n > 0 {
			return n, true
		}
	}
	for word, n := range semesterWords {
		if strings.Contains(lower, word) {
			return n, true
		}
	}
	return 0, false
}

package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abitbot/itmo-tgbot-go/internal/curriculum"
	"github.com/abitbot/itmo-tgbot-go/internal/logger"
	"github.com/abitbot/itmo-tgbot-go/internal/metrics"
	"github.com/abitbot/itmo-tgbot-go/internal/ratelimit"
	"github.com/abitbot/itmo-tgbot-go/internal/recommend"
	"github.com/abitbot/itmo-tgbot-go/internal/storage"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) texts() []string {
	out := make([]string, 0, len(f.sent))
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type lowercaser struct{}

func (lowercaser) Normalize(word string) string { return strings.ToLower(word) }

func testCurricula() map[string]*curriculum.ProgramCurriculum {
	return map[string]*curriculum.ProgramCurriculum{
		"ai": {
			ProgramName:       "AI",
			DurationSemesters: 2,
			Courses: []curriculum.Course{
				{ID: "1", Name: "Воркшоп по созданию продукта", Semester: 1, Credits: 3, IsCompulsory: true},
				{ID: "2", Name: "Machine Learning", Semester: 1, Credits: 6},
				{ID: "3", Name: "Data Analytics", Semester: 2, Credits: 4},
				{ID: "4", Name: "History of Art", Semester: 2, Credits: 2},
			},
		},
	}
}

func newTestHandler(t *testing.T) (*Handler, *fakeSender, *storage.DB) {
	t.Helper()

	db, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logger.New("error")
	areas := map[string][]string{
		"ai":   {"machine", "learning"},
		"data": {"data", "analytics"},
	}
	engine := recommend.NewEngine(testCurricula(), areas, lowercaser{}, log)

	sender := &fakeSender{}
	h := NewHandler(sender, db, engine, metrics.New(prometheus.NewRegistry()), log)
	return h, sender, db
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
	}
	if strings.HasPrefix(text, "/") {
		end := strings.Index(text, " ")
		if end == -1 {
			end = len(text)
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestStartCreatesSession(t *testing.T) {
	h, sender, db := newTestHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, textUpdate(1, "/start"))

	session, err := db.GetSession(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, storage.StateProgram, session.State)
	assert.Equal(t, string(recommend.StrategyDeepen), session.Strategy)

	require.Len(t, sender.sent, 1)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "выбери программу")

	keyboard, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, keyboard.Keyboard, 2)
}

func TestFullConversation(t *testing.T) {
	h, sender, db := newTestHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, textUpdate(7, "/start"))
	h.HandleUpdate(ctx, textUpdate(7, "Искусственный интеллект"))

	session, err := db.GetSession(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, storage.StateBackground, session.State)
	assert.Equal(t, "ai", session.ProgramID)
	assert.Contains(t, sender.lastText(), "бэкграунде")

	h.HandleUpdate(ctx, textUpdate(7, "4 3 2 3 1"))

	session, err = db.GetSession(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, storage.StateQuestions, session.State)
	assert.Equal(t, map[string]int{"math": 4, "programming": 3, "ai": 2, "data": 3, "product": 1}, session.Background)

	texts := strings.Join(sender.texts(), "\n")
	assert.Contains(t, texts, "Machine Learning")
	assert.Contains(t, texts, "Data Analytics")
	assert.NotContains(t, texts, "History of Art")
	assert.Contains(t, sender.lastText(), "задавать вопросы")

	h.HandleUpdate(ctx, textUpdate(7, "Какие обязательные курсы в первом семестре?"))
	assert.Contains(t, sender.lastText(), "Воркшоп по созданию продукта")

	h.HandleUpdate(ctx, textUpdate(7, "Какие обязательные курсы во 2 семестре?"))
	assert.Contains(t, sender.lastText(), "Не найдено обязательных курсов")

	h.HandleUpdate(ctx, textUpdate(7, "/cancel"))
	session, err = db.GetSession(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestInvalidBackground(t *testing.T) {
	h, sender, db := newTestHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, textUpdate(2, "/start"))
	h.HandleUpdate(ctx, textUpdate(2, "Искусственный интеллект"))

	for _, input := range []string{"abc", "1 2 3", "9 9 9 9 9", "1 2 3 4 -1"} {
		h.HandleUpdate(ctx, textUpdate(2, input))
		assert.Equal(t, msgBackgroundInvalid, sender.lastText(), "input %q", input)
	}

	session, err := db.GetSession(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, storage.StateBackground, session.State)
}

func TestUnknownProgramChoice(t *testing.T) {
	h, sender, _ := newTestHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, textUpdate(3, "/start"))
	h.HandleUpdate(ctx, textUpdate(3, "Биоинформатика"))

	assert.Equal(t, msgUseButtons, sender.lastText())
}

func TestMessageWithoutSession(t *testing.T) {
	h, sender, _ := newTestHandler(t)

	h.HandleUpdate(context.Background(), textUpdate(4, "привет"))

	assert.Equal(t, msgNeedStart, sender.lastText())
}

func TestStrategyCommand(t *testing.T) {
	h, sender, db := newTestHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, textUpdate(5, "/start"))
	h.HandleUpdate(ctx, textUpdate(5, "/strategy broaden"))

	session, err := db.GetSession(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, string(recommend.StrategyBroaden), session.Strategy)
	assert.Contains(t, sender.lastText(), "broaden")

	h.HandleUpdate(ctx, textUpdate(5, "/strategy everything"))
	assert.Equal(t, msgStrategyUsage, sender.lastText())
}

func TestStrategyWithoutSession(t *testing.T) {
	h, sender, _ := newTestHandler(t)

	h.HandleUpdate(context.Background(), textUpdate(6, "/strategy broaden"))

	assert.Equal(t, msgNeedStart, sender.lastText())
}

func TestUnknownCommand(t *testing.T) {
	h, sender, _ := newTestHandler(t)

	h.HandleUpdate(context.Background(), textUpdate(8, "/weather"))

	assert.Equal(t, msgUnknownCommand, sender.lastText())
}

func TestNonTextUpdateIgnored(t *testing.T) {
	h, sender, _ := newTestHandler(t)

	h.HandleUpdate(context.Background(), tgbotapi.Update{})
	h.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9}}})

	assert.Empty(t, sender.sent)
}

func TestRateLimitedUpdatesDropped(t *testing.T) {
	h, sender, _ := newTestHandler(t)
	limiter := ratelimit.NewPerChat(ratelimit.Config{
		MaxTokens:     1,
		RefillRate:    0.001,
		CleanupPeriod: time.Minute,
	})
	defer limiter.Stop()
	h.SetLimiter(limiter)

	ctx := context.Background()
	h.HandleUpdate(ctx, textUpdate(11, "/start"))
	h.HandleUpdate(ctx, textUpdate(11, "Искусственный интеллект"))

	require.Len(t, sender.sent, 1)

	// A different chat is not affected
	h.HandleUpdate(ctx, textUpdate(12, "/start"))
	assert.Len(t, sender.sent, 2)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newTestHandler(t)

	router := gin.New()
	router.POST("/webhook", h.Webhook())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	body := `{"update_id":1,"message":{"message_id":1,"chat":{"id":10},"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}}`
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseSemester(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"какие обязательные курсы в первом семестре?", 1, true},
		{"обязательные во втором семестре", 2, true},
		{"обязательные в 3 семестре", 3, true},
		{"обязательные курсы вообще", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseSemester(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

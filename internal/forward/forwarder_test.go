package forward

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"forwardbot/internal/config"
	"forwardbot/internal/database"
)

// telegramStub is an httptest-backed Bot API that records every call and can
// be told to fail requests for specific chat IDs.
type telegramStub struct {
	mu     sync.Mutex
	nextID int
	fail   map[string]bool
	calls  map[string][]url.Values
}

func newTelegramStub() *telegramStub {
	return &telegramStub{
		fail:  make(map[string]bool),
		calls: make(map[string][]url.Values),
	}
}

func (s *telegramStub) handler(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		_ = r.ParseForm()
	}

	s.mu.Lock()
	s.calls[method] = append(s.calls[method], r.Form)
	fail := s.fail[r.FormValue("chat_id")]
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
		return
	}

	switch method {
	case "copyMessage":
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d}}`, id)
	case "sendMediaGroup":
		var media []struct {
			Caption string `json:"caption"`
		}
		_ = json.Unmarshal([]byte(r.FormValue("media")), &media)
		parts := make([]string, 0, len(media))
		for i := range media {
			parts = append(parts, fmt.Sprintf(`{"message_id":%d}`, id*100+i))
		}
		fmt.Fprintf(w, `{"ok":true,"result":[%s]}`, strings.Join(parts, ","))
	default:
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}
}

func (s *telegramStub) requests(method string) []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.calls[method]))
	copy(out, s.calls[method])
	return out
}

func deliveryConfig() *config.Config {
	return &config.Config{
		Forward: config.ForwardConfig{
			MaxFileSizeMB:     50,
			MaxPerMinute:      100,
			MediaGroupTimeout: time.Hour,
		},
	}
}

// newDeliveryForwarder builds a forwarder whose bot client talks to the stub
// and whose store is an in-memory database.
func newDeliveryForwarder(t *testing.T, ctx context.Context, stub *telegramStub, cfg *config.Config) (*Forwarder, database.Store) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(srv.Close)

	tg, err := tgbot.New("12345:stub", tgbot.WithServerURL(srv.URL), tgbot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("bot.New: %v", err)
	}

	store := newSettingsStore(t)
	settings, err := LoadSettings(ctx, cfg, store, nil)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewForwarder(ctx, log, tg, store, cfg, settings), store
}

func TestDeliverIsolatesTargetFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	stub := newTelegramStub()
	stub.fail["-201"] = true

	f, store := newDeliveryForwarder(t, ctx, stub, deliveryConfig())
	for _, id := range []int64{-201, -202} {
		if _, err := store.AddChannel(ctx, database.RoleTarget, &database.Channel{ID: id}); err != nil {
			t.Fatalf("AddChannel(%d): %v", id, err)
		}
	}

	msg := &models.Message{ID: 7, Text: "hello", Chat: models.Chat{ID: -100, Title: "Src"}}
	f.Deliver(ctx, []*models.Message{msg})

	copies := stub.requests("copyMessage")
	if len(copies) != 2 {
		t.Fatalf("copyMessage calls = %d, want one per target", len(copies))
	}
	attempted := make(map[string]bool, len(copies))
	for _, call := range copies {
		attempted[call.Get("chat_id")] = true
	}
	if !attempted["-201"] || !attempted["-202"] {
		t.Errorf("attempted chats = %v, want both targets despite the failure", attempted)
	}

	total, success, err := store.TodaySuccessRate(ctx)
	if err != nil {
		t.Fatalf("TodaySuccessRate: %v", err)
	}
	if total != 2 || success != 1 {
		t.Errorf("forward log = (%d total, %d success), want (2, 1)", total, success)
	}

	snap := f.Stats().Read()
	if snap.MessagesForwarded != 1 || snap.FailedForwards != 1 {
		t.Errorf("counters forwarded=%d failed=%d, want 1 and 1",
			snap.MessagesForwarded, snap.FailedForwards)
	}
}

func TestDeliverMediaGroupCaptionOnFirstItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	stub := newTelegramStub()
	cfg := deliveryConfig()
	cfg.Forward.AddSourceInfo = true
	cfg.Forward.PreserveSender = true

	f, store := newDeliveryForwarder(t, ctx, stub, cfg)
	if _, err := store.AddChannel(ctx, database.RoleTarget, &database.Channel{ID: -300}); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	messages := []*models.Message{
		{
			ID: 11, MediaGroupID: "alb", Caption: "first",
			Chat:  models.Chat{ID: -100, Title: "News"},
			Photo: []models.PhotoSize{{FileID: "p1"}},
		},
		{
			ID: 12, MediaGroupID: "alb", Caption: "second",
			Chat:  models.Chat{ID: -100, Title: "News"},
			Photo: []models.PhotoSize{{FileID: "p2"}},
		},
	}
	f.Deliver(ctx, messages)

	sends := stub.requests("sendMediaGroup")
	if len(sends) != 1 {
		t.Fatalf("sendMediaGroup calls = %d, want 1", len(sends))
	}
	var media []struct {
		Caption string `json:"caption"`
	}
	if err := json.Unmarshal([]byte(sends[0].Get("media")), &media); err != nil {
		t.Fatalf("decode media payload: %v", err)
	}
	if len(media) != 2 {
		t.Fatalf("media items = %d, want 2", len(media))
	}
	if !strings.HasPrefix(media[0].Caption, "first") || !strings.Contains(media[0].Caption, "From: News") {
		t.Errorf("first caption = %q, want original text plus source info", media[0].Caption)
	}
	if media[1].Caption != "second" {
		t.Errorf("second caption = %q, want untouched member caption", media[1].Caption)
	}

	total, success, err := store.TodaySuccessRate(ctx)
	if err != nil {
		t.Fatalf("TodaySuccessRate: %v", err)
	}
	if total != 2 || success != 2 {
		t.Errorf("forward log = (%d total, %d success), want (2, 2)", total, success)
	}

	snap := f.Stats().Read()
	if snap.MediaGroupsForwarded != 1 || snap.MessagesForwarded != 2 {
		t.Errorf("counters groups=%d forwarded=%d, want 1 and 2",
			snap.MediaGroupsForwarded, snap.MessagesForwarded)
	}
}

func TestShutdownDeliversBufferedAlbum(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	stub := newTelegramStub()

	f, store := newDeliveryForwarder(t, ctx, stub, deliveryConfig())
	if _, err := store.AddChannel(context.Background(), database.RoleSource, &database.Channel{ID: -100}); err != nil {
		t.Fatalf("AddChannel source: %v", err)
	}
	if _, err := store.AddChannel(context.Background(), database.RoleTarget, &database.Channel{ID: -400}); err != nil {
		t.Fatalf("AddChannel target: %v", err)
	}

	f.HandleMessage(ctx, &models.Message{
		ID: 21, MediaGroupID: "alb", Chat: models.Chat{ID: -100},
		Photo: []models.PhotoSize{{FileID: "p1"}},
	})
	f.HandleMessage(ctx, &models.Message{
		ID: 22, MediaGroupID: "alb", Chat: models.Chat{ID: -100},
		Photo: []models.PhotoSize{{FileID: "p2"}},
	})

	// The listener context is gone; the drain still has to reach the target.
	cancel()
	f.Shutdown()

	if got := len(stub.requests("sendMediaGroup")); got != 1 {
		t.Fatalf("sendMediaGroup calls after shutdown = %d, want 1", got)
	}
	total, success, err := store.TodaySuccessRate(context.Background())
	if err != nil {
		t.Fatalf("TodaySuccessRate: %v", err)
	}
	if total != 2 || success != 2 {
		t.Errorf("forward log = (%d total, %d success), want (2, 2)", total, success)
	}
}

func TestInputMedia(t *testing.T) {
	t.Parallel()

	t.Run("photo uses highest resolution", func(t *testing.T) {
		t.Parallel()
		msg := &models.Message{Photo: []models.PhotoSize{
			{FileID: "small"}, {FileID: "medium"}, {FileID: "large"},
		}}
		item, ok := inputMedia(msg, "cap").(*models.InputMediaPhoto)
		if !ok {
			t.Fatalf("inputMedia returned %T, want *InputMediaPhoto", inputMedia(msg, "cap"))
		}
		if item.Media != "large" || item.Caption != "cap" {
			t.Errorf("item = %+v, want largest photo with caption", item)
		}
	})

	t.Run("video", func(t *testing.T) {
		t.Parallel()
		msg := &models.Message{Video: &models.Video{FileID: "vid"}}
		item, ok := inputMedia(msg, "").(*models.InputMediaVideo)
		if !ok || item.Media != "vid" {
			t.Errorf("inputMedia = %+v, want video item", item)
		}
	})

	t.Run("document", func(t *testing.T) {
		t.Parallel()
		msg := &models.Message{Document: &models.Document{FileID: "doc"}}
		item, ok := inputMedia(msg, "").(*models.InputMediaDocument)
		if !ok || item.Media != "doc" {
			t.Errorf("inputMedia = %+v, want document item", item)
		}
	})

	t.Run("audio", func(t *testing.T) {
		t.Parallel()
		msg := &models.Message{Audio: &models.Audio{FileID: "aud"}}
		item, ok := inputMedia(msg, "").(*models.InputMediaAudio)
		if !ok || item.Media != "aud" {
			t.Errorf("inputMedia = %+v, want audio item", item)
		}
	})

	t.Run("unsupported returns nil", func(t *testing.T) {
		t.Parallel()
		if item := inputMedia(&models.Message{Text: "plain"}, ""); item != nil {
			t.Errorf("inputMedia for text = %v, want nil", item)
		}
	})
}

func TestBuildCaption(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	settings, err := LoadSettings(ctx, settingsConfig(), newSettingsStore(t), nil)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	f := &Forwarder{settings: settings}

	msg := &models.Message{
		Caption: "original",
		Chat:    models.Chat{ID: -100, Title: "News Channel"},
		From:    &models.User{FirstName: "Ada", LastName: "Lovelace"},
		Date:    1735689600, // 2025-01-01 00:00:00 UTC
	}

	got := f.buildCaption(msg)
	if !strings.HasPrefix(got, "original") {
		t.Errorf("caption lost original text: %q", got)
	}
	for _, want := range []string{"From: News Channel", "Sender: Ada Lovelace", "Time: 2025-01-01 00:00:00"} {
		if !strings.Contains(got, want) {
			t.Errorf("caption missing %q: %q", want, got)
		}
	}

	// Untitled chats fall back to the chat ID.
	anon := &models.Message{Chat: models.Chat{ID: -200}}
	if got := f.buildCaption(anon); !strings.Contains(got, "From: -200") {
		t.Errorf("caption missing chat ID fallback: %q", got)
	}
}

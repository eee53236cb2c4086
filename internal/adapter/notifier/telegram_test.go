package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/mongo-s3-backup/internal/config"
	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	messages []url.Values
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"backup","username":"backup_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		r.ParseForm()
		f.mu.Lock()
		f.messages = append(f.messages, r.PostForm)
		f.mu.Unlock()
		io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func TestTelegram(t *testing.T) {
	Convey("Given a Telegram notifier talking to a fake bot API", t, func() {
		api := &fakeBotAPI{}
		server := httptest.NewServer(api)
		defer server.Close()

		notifier, err := newTelegram(
			&config.TelegramConfig{Enabled: true, BotToken: "123:abc", ChatID: 42},
			server.URL+"/bot%s/%s",
		)
		So(err, ShouldBeNil)

		Convey("When a run succeeded", func() {
			err := notifier.Notify(context.Background(), domain.RunOutcome{
				Database:  "shop",
				Archive:   "shop_2024_1_2_3.tar.gz",
				StartedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
				Duration:  90 * time.Second,
			})

			Convey("It should send one message to the configured chat", func() {
				So(err, ShouldBeNil)
				So(api.messages, ShouldHaveLength, 1)
				So(api.messages[0].Get("chat_id"), ShouldEqual, "42")
				So(api.messages[0].Get("text"), ShouldContainSubstring, "shop_2024_1_2_3.tar.gz")
			})
		})
	})
}

func TestFormatOutcome(t *testing.T) {
	Convey("Given run outcomes", t, func() {
		started := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

		Convey("A success names the archive and duration", func() {
			text := FormatOutcome(domain.RunOutcome{Database: "shop", Archive: "a.tar.gz", StartedAt: started, Duration: 1500 * time.Millisecond})
			So(text, ShouldContainSubstring, "Backup Uploaded")
			So(text, ShouldContainSubstring, "a.tar.gz")
			So(text, ShouldContainSubstring, "2s")
		})

		Convey("A failure carries the cause", func() {
			text := FormatOutcome(domain.RunOutcome{Database: "shop", StartedAt: started, Err: errors.New("dump: mongodump exited with code 1")})
			So(text, ShouldContainSubstring, "Backup Failed")
			So(text, ShouldContainSubstring, "mongodump exited with code 1")
		})
	})
}

// Package telegram is a thin capture surface: a photo of a credential
// comes in, normalized identity fields go back. All recognition work
// happens in the pipeline.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"idscan/internal/fields"
	"idscan/internal/pipeline"
)

type Router struct {
	Bot   *tgbotapi.BotAPI
	Pipe  *pipeline.Pipeline
	Token string

	httpc *http.Client
}

func NewRouter(bot *tgbotapi.BotAPI, pipe *pipeline.Pipeline, token string) *Router {
	return &Router{
		Bot:   bot,
		Pipe:  pipe,
		Token: token,
		httpc: &http.Client{Timeout: 60 * time.Second},
	}
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		switch upd.Message.Command() {
		case "start":
			r.send(cid, "Send a photo of the ID credential (front or back). I will return the extracted fields.")
		case "health":
			r.send(cid, "ok")
		default:
			r.send(cid, "Unknown command")
		}
		return
	}

	if len(upd.Message.Photo) > 0 {
		r.handlePhoto(cid, upd.Message.Photo)
	}
}

func (r *Router) handlePhoto(cid int64, sizes []tgbotapi.PhotoSize) {
	r.send(cid, "Got the photo, processing…")

	// largest rendition only
	ph := sizes[len(sizes)-1]
	tf, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		r.send(cid, "Could not fetch the file: "+err.Error())
		return
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Token, tf.FilePath)
	img, err := r.download(url)
	if err != nil {
		r.send(cid, "Could not download the photo: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	res, err := r.Pipe.Scan(ctx, img, url)
	if err != nil {
		if err == pipeline.ErrNotFound {
			r.send(cid, "No identity data found on this photo. Try a sharper shot of the back side, or enter the fields manually.")
			return
		}
		log.Printf("telegram: scan: %v", err)
		r.send(cid, "Recognition failed: "+err.Error())
		return
	}
	r.send(cid, formatFields(res))
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("telegram: send: %v", err)
	}
}

func (r *Router) download(url string) ([]byte, error) {
	resp, err := r.httpc.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func formatFields(res pipeline.Result) string {
	f := res.Fields
	var b strings.Builder
	b.WriteString("Extracted fields (" + res.Method + "):\n")
	line := func(label, v string) {
		if strings.TrimSpace(v) != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, v)
		}
	}
	line("Name", f.FullName)
	line("CURP", f.CURP)
	line("Voter key", f.VoterKey)
	line("Birth date", f.BirthDate)
	line("Section", f.Section)
	if f.Sex != fields.SexUnknown {
		line("Sex", string(f.Sex))
	}
	line("Address", f.Address)
	if len(f.Warnings) > 0 {
		b.WriteString("⚠️ Check manually: " + strings.Join(f.Warnings, ", ") + "\n")
	}
	if res.Cached {
		b.WriteString("(cached result)\n")
	}
	return strings.TrimSpace(b.String())
}

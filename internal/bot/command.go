package bot

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brogergvhs/mangasync/internal/chapters"
)

var ErrUsage = errors.New("invalid format: provide a URL, a chapter number and a manga title")

const Usage = "Use the `/sync` command to start a job.\n\n" +
	"*Format:*\n`/sync <url> <chapter_number> <Manga Title>`\n\n" +
	"*Example:*\n`/sync https://example.com/legendary-surgeon-chapter-45/ 45 Legendary Surgeon`"

// ParseCommand turns the arguments of /sync into a job. The first token is
// the source URL, the second the chapter id and the rest the title.
func ParseCommand(args string) (chapters.Job, error) {
	return ParseArgs(strings.Fields(args))
}

func ParseArgs(fields []string) (chapters.Job, error) {
	if len(fields) < 3 {
		return chapters.Job{}, ErrUsage
	}

	return chapters.Job{
		SourceURL: fields[0],
		ChapterID: fields[1],
		Title:     strings.Join(fields[2:], " "),
	}, nil
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func renderWelcome() string {
	return "Welcome to the Manga Scraper Bot!\n\n" + Usage
}

func renderAccepted(job chapters.Job) string {
	return fmt.Sprintf("✅ Job received!\n*Manga:* %s\n*Chapter:* %s\n\nScraping now, please wait...",
		esc(job.Title), esc(job.ChapterID))
}

// RenderOutcome formats a finished job for a chat reply.
func RenderOutcome(out chapters.Outcome) string {
	if !out.Success {
		return fmt.Sprintf("❌ *Sync Failed* ❌\n\nReason: %s", esc(out.Message))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎉 *Sync Successful!* 🎉\n\n%s.", esc(capitalize(out.Message)))
	if out.Key != "" {
		fmt.Fprintf(&b, "\n*Chapter key:* %s", esc(out.Key))
	}
	if out.SampleURL != "" {
		fmt.Fprintf(&b, "\n*First page:* %s", esc(out.SampleURL))
	}

	return b.String()
}

func renderCritical(err any) string {
	return fmt.Sprintf("🚨 A critical bot error occurred. Check the server logs.\nError: %v", err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

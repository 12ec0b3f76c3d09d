package bot

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brogergvhs/mangasync/internal/chapters"
	"github.com/brogergvhs/mangasync/internal/ingest"
	"github.com/brogergvhs/mangasync/internal/ui"
)

// Runner executes one chapter job.
type Runner interface {
	Run(ctx context.Context, job chapters.Job, obs ingest.Observer) chapters.Outcome
}

// Sender is the part of the Telegram API used for replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    Sender
	runner Runner
	log    *ui.Logger
	stats  *ui.Stats

	wg sync.WaitGroup
}

func New(api Sender, runner Runner, log *ui.Logger) *Bot {
	return &Bot{api: api, runner: runner, log: log, stats: &ui.Stats{}}
}

func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram: connect")
	}
	api.Debug = debug

	return api, nil
}

func (b *Bot) Stats() *ui.Stats {
	return b.stats
}

// Serve long-polls updates until ctx is done, then waits for running jobs.
func (b *Bot) Serve(ctx context.Context, api *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := api.GetUpdatesChan(u)
	b.log.Infof("bot @%s is running", api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			b.log.Infof("waiting for running jobs")
			b.Wait()
			return
		case update, ok := <-updates:
			if !ok {
				b.Wait()
				return
			}
			if update.Message != nil {
				b.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// HandleMessage dispatches one command. /sync jobs run in their own
// goroutine so the bot keeps answering while they upload.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, renderWelcome(), true)

	case "sync":
		job, err := ParseCommand(msg.CommandArguments())
		if err != nil {
			b.reply(chatID, "❌ Invalid format. Please provide: URL, Chapter Number, and Manga Title.\n\n"+Usage, true)
			return
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			// In-flight jobs are not cancelled on shutdown.
			b.sync(context.WithoutCancel(ctx), chatID, job)
		}()

	default:
		// Commands addressed to other bots in a group end up here too.
		b.log.Debugf("chat %d: ignoring /%s", chatID, msg.Command())
	}
}

func (b *Bot) sync(ctx context.Context, chatID int64, job chapters.Job) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("critical error in sync handler for %s: %v", job, r)
			b.reply(chatID, renderCritical(r), false)
		}
	}()

	b.stats.Jobs.Add(1)
	b.log.Infof("chat %d: job %s from %s", chatID, job, job.SourceURL)
	b.reply(chatID, renderAccepted(job), true)

	out := b.runner.Run(ctx, job, jobStats{b.stats})
	if out.Success {
		b.stats.Succeeded.Add(1)
	}

	b.reply(chatID, RenderOutcome(out), true)
}

// Wait blocks until every running job has replied.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) reply(chatID int64, text string, markdown bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		b.log.Errorf("chat %d: send reply: %v", chatID, err)
	}
}

type jobStats struct {
	s *ui.Stats
}

func (j jobStats) OnExtracted(int) {}

func (j jobStats) OnPage(p chapters.PageResult) {
	if p.OK() {
		j.s.Pages.Add(1)
		j.s.Bytes.Add(p.Bytes)
	}
}

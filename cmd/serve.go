package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangasync/internal/bot"
	"github.com/brogergvhs/mangasync/internal/config"
	"github.com/brogergvhs/mangasync/internal/util"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and process /sync commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(config.Options{}, config.NeedSelector|config.NeedStorage|config.NeedDatabase|config.NeedTelegram)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := util.SetupInterruptHandler(context.Background())
		defer cancel()

		svc, err := buildServices(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer svc.Close()

		api, err := bot.NewAPI(cfg.TelegramToken, cfg.Debug)
		if err != nil {
			return err
		}

		b := bot.New(api, svc.orch, log)
		b.Serve(ctx, api)

		s := b.Stats()
		log.Infof("bot stopped: %d jobs, %d succeeded, %d pages, %s",
			s.Jobs.Load(), s.Succeeded.Load(), s.Pages.Load(), util.Human(s.Bytes.Load()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

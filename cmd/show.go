package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangasync/internal/config"
	"github.com/brogergvhs/mangasync/internal/slug"
	"github.com/brogergvhs/mangasync/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <key> | show <chapter> <title...>",
	Short: "Print a stored chapter record",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if len(args) > 1 {
			key = slug.Key(strings.Join(args[1:], " "), args[0])
		}

		cfg, log, err := loadConfig(config.Options{}, config.NeedDatabase)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		rec, err := store.NewChapterStore(pool).Get(ctx, key)
		if err != nil {
			return err
		}

		fmt.Printf("Key:      %s\n", rec.Key)
		fmt.Printf("Title:    %s\n", rec.Title)
		fmt.Printf("Chapter:  %s\n", rec.ChapterID)
		fmt.Printf("Source:   %s\n", rec.SourceURL)
		fmt.Printf("Pages:    %d\n", rec.PageCount)
		fmt.Printf("Created:  %s\n\n", rec.CreatedAt.Local().Format(time.RFC3339))
		for i, u := range rec.ImageURLs {
			fmt.Printf("%3d) %s\n", i+1, u)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

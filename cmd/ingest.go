package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangasync/internal/bot"
	"github.com/brogergvhs/mangasync/internal/chapters"
	"github.com/brogergvhs/mangasync/internal/config"
	"github.com/brogergvhs/mangasync/internal/providers/generic"
	"github.com/brogergvhs/mangasync/internal/ui"
	"github.com/brogergvhs/mangasync/internal/util"
)

var (
	flagSelector   string
	flagUserAgent  string
	flagCookie     string
	flagCookieFile string
	flagPageDelay  time.Duration
	flagMinPages   int
	flagDryRun     bool
)

func init() {
	ingestCmd := &cobra.Command{
		Use:   "ingest <url> <chapter> <title...>",
		Short: "Run one chapter job from the terminal. Uses the selected config, overwritten by CLI flags",
		Example: `  mangasync ingest https://example.com/legendary-surgeon-chapter-45/ 45 Legendary Surgeon
  mangasync ingest --dry-run --selector ".reading-content img" https://example.com/ch-1/ 1 Some Title`,
		Args: cobra.MinimumNArgs(3),
		RunE: runIngest,
	}

	ingestCmd.Flags().StringVar(&flagSelector, "selector", "", "CSS selector matching the page images")
	ingestCmd.Flags().DurationVar(&flagPageDelay, "page-delay", 0, "pause after every page upload (e.g. 500ms)")
	ingestCmd.Flags().IntVar(&flagMinPages, "min-pages", 0, "uploaded pages required to save the chapter")
	ingestCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "only list the image references, upload nothing")

	// headers/auth
	ingestCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	ingestCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	ingestCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	job, err := bot.ParseArgs(args)
	if err != nil {
		return err
	}
	if err := job.Validate(); err != nil {
		return err
	}

	need := config.NeedSelector
	if !flagDryRun {
		need |= config.NeedStorage | config.NeedDatabase
	}

	opts := config.Options{
		Selector:   flagSelector,
		UserAgent:  flagUserAgent,
		Cookie:     flagCookie,
		CookieFile: flagCookieFile,
		MinPages:   flagMinPages,
	}
	if cmd.Flags().Changed("page-delay") {
		opts.PageDelay = &flagPageDelay
	}

	cfg, log, err := loadConfig(opts, need)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := util.SetupInterruptHandler(context.Background())
	defer cancel()

	if flagDryRun {
		return dryRun(ctx, cfg, log, job)
	}

	svc, err := buildServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	pm := ui.NewProgressManager()
	handle := pm.Register("Ch." + job.ChapterID)

	start := time.Now()
	out := svc.orch.Run(ctx, job, handle)
	handle.MarkDone()
	pm.Close()

	printOutcome(out, time.Since(start))
	if !out.Success {
		return errors.Newf("job %s failed", job)
	}

	return nil
}

func dryRun(ctx context.Context, cfg *config.Config, log *ui.Logger, job chapters.Job) error {
	client, err := newHTTPClient(cfg, log)
	if err != nil {
		return err
	}

	refs, err := generic.NewScraper(client, cfg.Selector, log).GetImages(ctx, job.SourceURL)
	if err != nil {
		return err
	}

	fmt.Printf("Dry-run: %d pages found with selector %q.\n\n", len(refs), cfg.Selector)
	for i, ref := range refs {
		fmt.Printf("%3d) %s\n    -> %s\n", i+1, ref, job.PagePath(i+1))
	}

	return nil
}

func printOutcome(out chapters.Outcome, took time.Duration) {
	fmt.Println()
	if out.Success {
		fmt.Println("Sync Summary:")
	} else {
		fmt.Println("Sync Failed:")
	}
	fmt.Printf("Result:   %s\n", out.Message)
	if out.Key != "" {
		fmt.Printf("Key:      %s\n", out.Key)
	}
	if out.Total > 0 {
		fmt.Printf("Pages:    %d/%d\n", out.Uploaded, out.Total)
	}
	if out.SampleURL != "" {
		fmt.Printf("First:    %s\n", out.SampleURL)
	}
	fmt.Printf("Time:     %s\n", took.Round(time.Second))
}

package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/quickvote-go/internal/cli/bench"
	"github.com/yndnr/quickvote-go/internal/cli/output"
)

// BenchCommand returns the load generation command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Generate load and show how requests spread across containers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Aliases: []string{"e"},
				Usage:   "Endpoint to hit: health or results",
				Value:   string(bench.DefaultEndpoint),
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"c"},
				Usage:   "Concurrent workers",
				Value:   bench.DefaultWorkers,
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Run length",
				Value:   bench.DefaultDuration,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Cap on requests per second across workers (0 = unlimited)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress line",
			},
		},
		Action: runBench,
	}
}

func runBench(c *cli.Context) error {
	endpoint, err := bench.ParseEndpoint(c.String("endpoint"))
	if err != nil {
		return err
	}
	if c.Int("workers") <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Duration("duration") <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	flags := ParseGlobalFlags(c)
	cfg := bench.Config{
		Client:   NewClient(c),
		Endpoint: endpoint,
		Workers:  c.Int("workers"),
		Duration: c.Duration("duration"),
		Rate:     c.Float64("rate"),
	}

	var bar *output.ProgressBar
	if !c.Bool("quiet") && !structured(c) {
		bar = output.NewProgressBar(os.Stderr, "bench", cfg.Duration)
		cfg.Progress = bar.Update
	}

	fmt.Fprintf(os.Stderr, "Hitting %s%s with %d workers for %s\n",
		cfg.Client.BaseURL(), endpoint.Path(), cfg.Workers, cfg.Duration)

	report, err := bench.Run(c.Context, cfg)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if output.Format(flags.Output) != output.FormatTable {
		return formatter(c).Format(stdout(c), report)
	}
	return printReport(c, report)
}

func printReport(c *cli.Context, r *bench.Report) error {
	w := stdout(c)

	summary := &output.Table{}
	summary.AddRow("Requests:", fmt.Sprintf("%d", r.Total))
	summary.AddRow("Success:", fmt.Sprintf("%d", r.Success))
	summary.AddRow("Failed:", fmt.Sprintf("%d", r.Failed))
	summary.AddRow("Duration:", output.FormatDuration(r.Duration.Round(time.Millisecond)))
	summary.AddRow("Throughput:", fmt.Sprintf("%.2f req/s", r.RPS))
	if err := summary.Render(w); err != nil {
		return err
	}

	if len(r.Containers) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	dist := &output.Table{}
	dist.SetHeaders("CONTAINER", "REQUESTS", "SHARE")
	for _, cc := range r.Containers {
		dist.AddRow(cc.Container, fmt.Sprintf("%d", cc.Requests), fmt.Sprintf("%.1f%%", cc.Share))
	}
	return dist.Render(w)
}

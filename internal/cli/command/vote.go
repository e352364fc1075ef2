package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/quickvote-go/internal/cli/connection"
	"github.com/yndnr/quickvote-go/internal/cli/output"
	"github.com/yndnr/quickvote-go/internal/core/domain"
)

// VoteCommand returns the vote command.
func VoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "vote",
		Usage: "Cast a vote in the current session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Voter e-mail (one vote per address)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "candidate",
				Aliases:  []string{"c"},
				Usage:    "Candidate ID",
				Required: true,
			},
		},
		Action: vote,
	}
}

// ResultsCommand returns the results command.
func ResultsCommand() *cli.Command {
	return &cli.Command{
		Name:   "results",
		Usage:  "Show the tally of the current session",
		Action: results,
	}
}

type resultsResult struct {
	domain.Results
	Container string `json:"container"`
}

func vote(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	body := map[string]string{
		"email":        c.String("email"),
		"candidate_id": c.String("candidate"),
	}
	resp, err := NewClient(c).Post(ctx, "/api/vote", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result messageResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if structured(c) {
		return formatter(c).Format(stdout(c), result)
	}
	fmt.Fprintf(stdout(c), "%s (served by %s).\n", result.Message, result.Container)
	return nil
}

func results(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := NewClient(c).Get(ctx, "/api/results")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result resultsResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if structured(c) {
		return formatter(c).Format(stdout(c), result)
	}

	w := stdout(c)
	if len(result.Candidates) == 0 {
		fmt.Fprintln(w, "No voting session.")
		return nil
	}

	table := &output.Table{}
	table.SetHeaders("CANDIDATE", "NAME", "VOTES", "PERCENT")
	for _, cand := range result.Candidates {
		table.AddRow(cand.ID, cand.Name, fmt.Sprintf("%d", cand.Votes), fmt.Sprintf("%.1f%%", cand.Percentage))
	}
	if err := table.Render(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %d votes (served by %s)\n", result.TotalVotes, result.Container)
	return nil
}

// DemoCommand returns the legacy demo counter commands.
func DemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Legacy two-option demo counters",
		Subcommands: []*cli.Command{
			{
				Name:      "vote",
				Usage:     "Increment a demo counter",
				ArgsUsage: "option1|option2",
				Action:    demoVote,
			},
			{
				Name:   "tally",
				Usage:  "Show the demo counters",
				Action: demoTally,
			},
		},
	}
}

type demoTallyResult struct {
	Votes     map[string]int64 `json:"votes"`
	Container string           `json:"container"`
}

func demoVote(c *cli.Context) error {
	option := c.Args().First()
	if option == "" {
		return fmt.Errorf("option required (option1 or option2)")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := NewClient(c).Post(ctx, "/api/vote-demo", map[string]string{"option": option})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result messageResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if structured(c) {
		return formatter(c).Format(stdout(c), result)
	}
	fmt.Fprintf(stdout(c), "%s (served by %s).\n", result.Message, result.Container)
	return nil
}

func demoTally(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := NewClient(c).Get(ctx, "/api/votes")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result demoTallyResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if structured(c) {
		return formatter(c).Format(stdout(c), result)
	}
	return formatter(c).Format(stdout(c), result.Votes)
}

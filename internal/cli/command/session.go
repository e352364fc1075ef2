package command

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/quickvote-go/internal/cli/connection"
	"github.com/yndnr/quickvote-go/internal/cli/output"
	"github.com/yndnr/quickvote-go/internal/core/domain"
)

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Manage the voting session",
		Subcommands: []*cli.Command{
			{
				Name:   "current",
				Usage:  "Show the current session",
				Action: sessionCurrent,
			},
			{
				Name:  "create",
				Usage: "Create a new (inactive) session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Question shown to voters",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "candidate",
						Aliases:  []string{"c"},
						Usage:    "Candidate as ID=NAME (repeat, at least two)",
						Required: true,
					},
				},
				Action: sessionCreate,
			},
			{
				Name:   "start",
				Usage:  "Start accepting votes",
				Action: sessionStart,
			},
			{
				Name:   "stop",
				Usage:  "Stop accepting votes",
				Action: sessionStop,
			},
			{
				Name:  "delete",
				Usage: "Delete the session with its votes and voter records",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: sessionDelete,
			},
		},
	}
}

type currentSessionResult struct {
	Exists bool                  `json:"exists"`
	Voting *domain.VotingSession `json:"voting,omitempty"`
}

type sessionResult struct {
	Success bool                  `json:"success"`
	Voting  *domain.VotingSession `json:"voting"`
}

type messageResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Container string `json:"container,omitempty"`
}

func sessionCurrent(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := NewClient(c).Get(ctx, "/api/voting/current")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result currentSessionResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if structured(c) {
		return formatter(c).Format(stdout(c), result)
	}
	if !result.Exists {
		fmt.Fprintln(stdout(c), "No voting session.")
		return nil
	}
	return printSession(c, result.Voting)
}

func sessionCreate(c *cli.Context) error {
	candidates, err := parseCandidates(c.StringSlice("candidate"))
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	body := map[string]any{
		"title":      c.String("title"),
		"candidates": candidates,
	}
	resp, err := NewClient(c).Post(ctx, "/api/voting/create", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result sessionResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if structured(c) {
		return formatter(c).Format(stdout(c), result.Voting)
	}
	fmt.Fprintf(stdout(c), "Voting session %s created. Run 'session start' to open it.\n", result.Voting.ID)
	return nil
}

// parseCandidates turns ID=NAME pairs into candidates. A bare ID is used
// as its own name.
func parseCandidates(pairs []string) ([]domain.Candidate, error) {
	candidates := make([]domain.Candidate, 0, len(pairs))
	for _, p := range pairs {
		id, name, found := strings.Cut(p, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("invalid candidate %q: id is empty", p)
		}
		if !found {
			name = id
		}
		candidates = append(candidates, domain.Candidate{ID: id, Name: strings.TrimSpace(name)})
	}
	return candidates, nil
}

func sessionStart(c *cli.Context) error {
	return setSessionState(c, "/api/voting/start", "started")
}

func sessionStop(c *cli.Context) error {
	return setSessionState(c, "/api/voting/stop", "stopped")
}

func setSessionState(c *cli.Context, path, verb string) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := NewClient(c).Post(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result sessionResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if structured(c) {
		return formatter(c).Format(stdout(c), result.Voting)
	}
	fmt.Fprintf(stdout(c), "Voting session %s %s.\n", result.Voting.ID, verb)
	return nil
}

func sessionDelete(c *cli.Context) error {
	if !c.Bool("force") {
		fmt.Fprint(stdout(c), "This deletes the session, all votes and voter records. Continue? [y/N]: ")
		answer, _ := bufio.NewReader(stdin(c)).ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(stdout(c), "Cancelled.")
			return nil
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := NewClient(c).Delete(ctx, "/api/voting/delete")
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
	fmt.Fprintln(stdout(c), "Voting session deleted.")
	return nil
}

func printSession(c *cli.Context, s *domain.VotingSession) error {
	w := stdout(c)
	state := "inactive"
	if s.IsActive {
		state = "active"
	}

	info := &output.Table{}
	info.AddRow("ID:", s.ID)
	info.AddRow("Title:", s.Title)
	info.AddRow("State:", state)
	info.AddRow("Created:", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if err := info.Render(w); err != nil {
		return err
	}

	fmt.Fprintln(w)
	candidates := &output.Table{}
	candidates.SetHeaders("CANDIDATE", "NAME")
	for _, cand := range s.Candidates {
		candidates.AddRow(cand.ID, cand.Name)
	}
	return candidates.Render(w)
}

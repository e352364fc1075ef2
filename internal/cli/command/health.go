package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/quickvote-go/internal/cli/connection"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ready",
				Usage: "Check readiness (store reachable) instead of liveness",
			},
		},
		Action: health,
	}
}

type healthResult struct {
	Status    string `json:"status"`
	Container string `json:"container"`
	Timestamp string `json:"timestamp"`
}

func health(c *cli.Context) error {
	path := "/api/health"
	if c.Bool("ready") {
		path = "/api/ready"
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := NewClient(c).Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result healthResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if structured(c) {
		return formatter(c).Format(stdout(c), result)
	}
	fmt.Fprintf(stdout(c), "Status: %s (container %s)\n", result.Status, result.Container)
	return nil
}

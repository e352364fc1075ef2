package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/quickvote-go/internal/cli/connection"
	"github.com/yndnr/quickvote-go/internal/cli/output"
	"github.com/yndnr/quickvote-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	info := buildinfo.Get()
	return &cli.App{
		Name:    "quickvote-cli",
		Usage:   "QuickVote command-line client",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SessionCommand(),
			VoteCommand(),
			ResultsCommand(),
			DemoCommand(),
			HealthCommand(),
			BenchCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "QuickVote server address (e.g., localhost:5000)",
			EnvVars: []string{"QUICKVOTE_SERVER"},
			Value:   "localhost:5000",
		},
		&cli.StringFlag{
			Name:    "admin-password",
			Aliases: []string{"p"},
			Usage:   "Admin password for session management",
			EnvVars: []string{"QUICKVOTE_ADMIN_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
			Value: 30 * time.Second,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server        string
	AdminPassword string

	Output  string // table, json, yaml
	Wide    bool
	Timeout time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:        c.String("server"),
		AdminPassword: c.String("admin-password"),
		Output:        c.String("output"),
		Wide:          c.Bool("wide"),
		Timeout:       c.Duration("timeout"),
	}
}

// NewClient returns an HTTP client for the server named by the global flags.
func NewClient(c *cli.Context) *connection.HTTPClient {
	flags := ParseGlobalFlags(c)
	return connection.NewHTTPClient(flags.Server, flags.AdminPassword)
}

// requestContext bounds a single API call by --timeout.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	timeout := c.Duration("timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(c.Context, timeout)
}

// formatter returns the formatter for --output.
func formatter(c *cli.Context) output.Formatter {
	flags := ParseGlobalFlags(c)
	return output.NewFormatter(output.Format(flags.Output), flags.Wide)
}

// structured reports whether --output asks for machine-readable output.
func structured(c *cli.Context) bool {
	f := output.Format(c.String("output"))
	return f == output.FormatJSON || f == output.FormatYAML
}

// stdout returns the writer command output goes to.
func stdout(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// stdin returns the reader confirmations are read from.
func stdin(c *cli.Context) io.Reader {
	if c.App != nil && c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

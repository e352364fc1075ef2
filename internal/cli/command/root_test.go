package command

import (
	"bytes"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}

	if app.Name != "quickvote-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "quickvote-cli")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"session", "vote", "results", "demo", "health", "bench"} {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, flag := range App().Flags {
		flagNames[flag.Names()[0]] = true
	}

	for _, name := range []string{"server", "admin-password", "output", "wide", "timeout"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestApp_RejectsUnknownOutput(t *testing.T) {
	app := App()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}

	err := app.Run([]string{"quickvote-cli", "--output", "xml", "health"})
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("Run() error = %v, want unknown output format", err)
	}
}

func TestApp_RunsCommand(t *testing.T) {
	server := newMockServer()
	defer server.Close()
	server.handle("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		okResponse(w, map[string]string{"status": "healthy", "container": "node-1"})
	})

	var out bytes.Buffer
	app := App()
	app.Writer = &out

	if err := app.Run([]string{"quickvote-cli", "--server", server.URL, "health"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "healthy") {
		t.Errorf("output = %q", out.String())
	}
}

func TestParseGlobalFlags(t *testing.T) {
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)

			if flags.Server != "vote.example.com:8080" {
				t.Errorf("Server = %q", flags.Server)
			}
			if flags.AdminPassword != "s3cret" {
				t.Errorf("AdminPassword = %q", flags.AdminPassword)
			}
			if flags.Output != "json" {
				t.Errorf("Output = %q", flags.Output)
			}
			if !flags.Wide {
				t.Error("Wide should be true")
			}
			if flags.Timeout != 5*time.Second {
				t.Errorf("Timeout = %v", flags.Timeout)
			}
			return nil
		},
	}

	args := []string{
		"test",
		"--server", "vote.example.com:8080",
		"--admin-password", "s3cret",
		"--output", "json",
		"--wide",
		"--timeout", "5s",
	}
	if err := app.Run(args); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestParseGlobalFlags_Defaults(t *testing.T) {
	t.Setenv("QUICKVOTE_SERVER", "")
	t.Setenv("QUICKVOTE_ADMIN_PASSWORD", "")

	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)

			if flags.Server != "localhost:5000" {
				t.Errorf("Server default = %q, want %q", flags.Server, "localhost:5000")
			}
			if flags.AdminPassword != "" {
				t.Errorf("AdminPassword default = %q", flags.AdminPassword)
			}
			if flags.Output != "table" {
				t.Errorf("Output default = %q, want %q", flags.Output, "table")
			}
			if flags.Timeout != 30*time.Second {
				t.Errorf("Timeout default = %v", flags.Timeout)
			}
			return nil
		},
	}

	if err := app.Run([]string{"test"}); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestGlobalFlags_EnvVars(t *testing.T) {
	t.Setenv("QUICKVOTE_SERVER", "env-host:9000")
	t.Setenv("QUICKVOTE_ADMIN_PASSWORD", "from-env")

	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			client := NewClient(c)
			if client.BaseURL() != "http://env-host:9000" {
				t.Errorf("BaseURL() = %q", client.BaseURL())
			}
			if ParseGlobalFlags(c).AdminPassword != "from-env" {
				t.Error("admin password should come from QUICKVOTE_ADMIN_PASSWORD")
			}
			return nil
		},
	}

	if err := app.Run([]string{"test"}); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestPrintError(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	PrintError("test error: %s", "details")

	w.Close()
	os.Stderr = oldStderr

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if buf.String() != "error: test error: details\n" {
		t.Errorf("PrintError output = %q", buf.String())
	}
}

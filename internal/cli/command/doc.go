// Package command provides the quickvote-cli command definitions.
//
// Commands are built on urfave/cli/v2. Each action talks to the server
// through connection.HTTPClient and writes to the app's Writer using the
// formatter picked by --output.
package command

// Package cli hosts operator subcommands for the taskhive binary:
// minting development bearer tokens and managing background jobs.
package cli

import (
	"fmt"
	"io"
)

// Run dispatches a subcommand and returns its process exit code.
func Run(command string, args []string, stdout, stderr io.Writer) int {
	switch command {
	case "mint":
		return runMint(args, stdout, stderr)
	case "jobs":
		return runJobs(args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		fmt.Fprint(stderr, usage)
		return 2
	}
}

const usage = `usage:
  taskhive                           start the API server
  taskhive mint -subject <owner-id>  mint a development bearer token
  taskhive jobs trigger <task-type>  enqueue a background job now
  taskhive jobs stats                show queue depth
  taskhive jobs scheduled            list upcoming scheduled jobs
`

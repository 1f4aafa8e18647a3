package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/taskhive/taskhive/internal/auth"
)

// MintCLI signs development bearer tokens with the configured secret.
// Production issuance belongs to the external credential service; this
// exists for local testing against a running server.
type MintCLI struct {
	verifier *auth.Verifier
}

// NewMintCLI constructs the helper around the shared HMAC secret.
func NewMintCLI(secret []byte) *MintCLI {
	return &MintCLI{verifier: auth.NewVerifier(secret)}
}

// MintOptions configures a single mint invocation.
type MintOptions struct {
	Subject    string
	TTL        time.Duration
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// MintSummary is the JSON output shape of the mint command.
type MintSummary struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MintCommand signs a token and writes it to stdout. It returns the
// process exit code.
func (c *MintCLI) MintCommand(opts MintOptions) int {
	if opts.Subject == "" {
		fmt.Fprintln(opts.Stderr, "mint: -subject is required")
		return 1
	}
	if opts.TTL <= 0 {
		fmt.Fprintln(opts.Stderr, "mint: -ttl must be positive")
		return 1
	}

	token, err := c.verifier.Mint(opts.Subject, opts.TTL)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "mint: sign token: %v\n", err)
		return 1
	}

	if opts.JSONOutput {
		summary := MintSummary{
			Token:     token,
			Subject:   opts.Subject,
			ExpiresAt: time.Now().Add(opts.TTL).UTC(),
		}
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			fmt.Fprintf(opts.Stderr, "mint: encode output: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintln(opts.Stdout, token)
	return 0
}

func runMint(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("subject", "", "subject (owner id) embedded in the token")
	ttl := fs.Duration("ttl", 30*time.Minute, "token lifetime")
	jsonOut := fs.Bool("json", false, "emit a JSON summary instead of the bare token")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(stderr, "mint: AUTH_JWT_SECRET must be set")
		return 1
	}

	return NewMintCLI([]byte(secret)).MintCommand(MintOptions{
		Subject:    *subject,
		TTL:        *ttl,
		JSONOutput: *jsonOut,
		Stdout:     stdout,
		Stderr:     stderr,
	})
}

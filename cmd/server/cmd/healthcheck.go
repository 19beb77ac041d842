package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Exit codes reported to the container runtime.
const (
	exitUnhealthy       = 1
	exitInvalidResponse = 2
)

func newHealthcheckCmd() *cobra.Command {
	var (
		timeout time.Duration
		url     string
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.
It exits with code 0 if the server is healthy or degraded, non-zero otherwise.

Exit codes:
  0 - Server is healthy or degraded
  1 - Server is unhealthy or unreachable
  2 - Invalid response from server`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := url
			if target == "" {
				target = defaultHealthURL()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := checkHealth(ctx, http.DefaultClient, target)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Health check failed: %v\n", err)
				os.Exit(healthExitCode(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", resp.Status, resp.Version)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	cmd.Flags().StringVar(&url, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
	return cmd
}

// HealthResponse matches the body served by /health.
type HealthResponse struct {
	Status  string                     `json:"status"`
	Version string                     `json:"version"`
	Checks  map[string]json.RawMessage `json:"checks,omitempty"`
}

var (
	errUnhealthy       = errors.New("server unhealthy")
	errInvalidResponse = errors.New("invalid health response")
)

func defaultHealthURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s/health", port)
}

// checkHealth fetches url and classifies the result. Degraded counts as
// healthy: the server still answers requests.
func checkHealth(ctx context.Context, client *http.Client, url string) (HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("%w: %v", errUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body HealthResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		return body, fmt.Errorf("%w: status %d", errUnhealthy, resp.StatusCode)
	}
	if decodeErr != nil {
		return HealthResponse{}, fmt.Errorf("%w: %v", errInvalidResponse, decodeErr)
	}

	switch body.Status {
	case "healthy", "degraded":
		return body, nil
	case "":
		return body, fmt.Errorf("%w: missing status", errInvalidResponse)
	default:
		return body, fmt.Errorf("%w: status=%s", errUnhealthy, body.Status)
	}
}

func healthExitCode(err error) int {
	if errors.Is(err, errInvalidResponse) {
		return exitInvalidResponse
	}
	return exitUnhealthy
}

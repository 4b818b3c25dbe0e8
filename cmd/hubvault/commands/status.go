package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/hubvault/hubvault/internal/cli/health"
	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/hubvault/hubvault/internal/cli/timeutil"
	"github.com/spf13/cobra"
)

var (
	statusOutput  string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the HubVault server.

This command checks server health by calling the readiness endpoint and
displays the status of the metadata database and the content store.

Examples:
  # Check status (uses default settings)
  hubvault status

  # Check status with custom API port
  hubvault status --api-port 9080

  # Output as JSON
  hubvault status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "API server port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running   bool              `json:"running" yaml:"running"`
	Healthy   bool              `json:"healthy" yaml:"healthy"`
	Message   string            `json:"message" yaml:"message"`
	CheckedAt string            `json:"checked_at,omitempty" yaml:"checked_at,omitempty"`
	Checks    map[string]string `json:"checks,omitempty" yaml:"checks,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{
		Running: false,
		Healthy: false,
		Message: "Server is not running",
	}

	healthURL := fmt.Sprintf("http://localhost:%d/health/ready", statusAPIPort)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(healthURL)
	if err == nil {
		defer func() { _ = resp.Body.Close() }()

		var healthResp health.Response
		if err := json.NewDecoder(resp.Body).Decode(&healthResp); err == nil {
			status.Running = true
			status.Healthy = healthResp.Healthy()
			status.CheckedAt = healthResp.Timestamp
			status.Checks = healthResp.Checks
			if status.Healthy {
				status.Message = "Server is running and healthy"
			} else {
				status.Message = "Server is running but unhealthy"
			}
		} else {
			status.Running = true
			status.Message = "Server is running but health response invalid"
		}
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("HubVault Server Status")
	fmt.Println("======================")
	fmt.Println()

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (unhealthy)\033[0m\n")
		}
		names := make([]string, 0, len(status.Checks))
		for name := range status.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-11s %s\n", name+":", status.Checks[name])
		}
		if status.CheckedAt != "" {
			fmt.Printf("  %-11s %s\n", "Checked:", timeutil.FormatTime(status.CheckedAt))
		}
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}

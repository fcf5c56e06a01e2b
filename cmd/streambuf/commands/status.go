package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/streambuf/internal/bytesize"
	"github.com/marmos91/streambuf/internal/cli/output"
	"github.com/marmos91/streambuf/pkg/accumulator"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status of a running streambuf server.

Calls the health and stats endpoints of the admin API and shows uptime,
open sessions and buffer pool usage.

Examples:
  # Check status (uses default settings)
  streambuf status

  # Check status with custom API port
  streambuf status --api-port 9080

  # Output as JSON
  streambuf status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&apiPort, "api-port", 8080, "API server port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running    bool               `json:"running" yaml:"running"`
	Healthy    bool               `json:"healthy" yaml:"healthy"`
	Message    string             `json:"message" yaml:"message"`
	InstanceID string             `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	StartedAt  string             `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime     string             `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Stats      *accumulator.Stats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{Message: "Server is not running"}
	client := newClient().WithTimeout(2 * time.Second)

	if h, err := client.Health(); err == nil {
		status.Running = true
		status.Healthy = h.Status == "healthy"
		status.InstanceID = h.Data.InstanceID
		status.StartedAt = h.Data.StartedAt
		status.Uptime = h.Data.Uptime
		status.Message = "Server is running and healthy"
		if !status.Healthy {
			status.Message = fmt.Sprintf("Server is running but unhealthy: %s", h.Error)
		}

		if stats, err := client.Stats(); err == nil {
			status.Stats = stats
		} else {
			status.Message = fmt.Sprintf("Server is running but stats are unavailable: %v", err)
		}
	}

	if format != output.FormatTable {
		return output.Print(os.Stdout, format, status)
	}
	return output.PrintKeyValues(os.Stdout, statusPairs(status))
}

func statusPairs(status ServerStatus) output.KeyValues {
	var kv output.KeyValues
	switch {
	case !status.Running:
		kv.Add("Status", "○ Stopped")
	case status.Healthy:
		kv.Add("Status", "● Running")
	default:
		kv.Add("Status", "● Running (unhealthy)")
	}

	if status.InstanceID != "" {
		kv.Add("Instance", status.InstanceID)
	}
	if status.StartedAt != "" {
		kv.Add("Started", formatTime(status.StartedAt))
	}
	if status.Uptime != "" {
		kv.Add("Uptime", status.Uptime)
	}

	if s := status.Stats; s != nil {
		kv.Add("Users", strconv.FormatInt(s.ActiveUsers, 10))
		kv.Add("Sessions", strconv.FormatInt(s.ActiveSessions, 10))
		kv.Add("Appends", fmt.Sprintf("%d (%d failed)", s.Appends, s.AppendFailures))
		kv.Add("Finalized", fmt.Sprintf("%d (%d evicted)", s.Finalized, s.Evicted))
		kv.Add("Misses", fmt.Sprintf("%d not found, %d invalid key", s.NotFound, s.InvalidKeys))
		kv.Add("Content cap", bytesize.ByteSize(s.MaxContentLength).String())
		kv.Add("Pool", fmt.Sprintf("%d/%d idle, %s buffers",
			s.Pool.Idle, s.Pool.Size, bytesize.ByteSize(s.Pool.InitialCapacity).String()))
	}

	kv.Add("Message", status.Message)
	return kv
}

// formatTime renders an RFC3339 timestamp in local time, or returns it unchanged.
func formatTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("Mon Jan 2 15:04:05 2006")
}

package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/streambuf/internal/cli/output"
	"github.com/marmos91/streambuf/pkg/accumulator"
)

var sessionOutput string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear sessions on a running server",
	Long: `Inspect or clear buffered sessions through the admin API.

Inspecting a session shows its channel lengths and timestamps; the buffered
text itself is never returned.

Examples:
  # Show one session
  streambuf session get 42 7

  # Drop one session
  streambuf session clear 42 7

  # Drop every session of a user
  streambuf session clear 42`,
}

var sessionGetCmd = &cobra.Command{
	Use:   "get USER_ID SESSION_ID",
	Short: "Show a session",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionGet,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear USER_ID [SESSION_ID]",
	Short: "Clear a session, or every session of a user",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSessionClear,
}

func init() {
	sessionCmd.PersistentFlags().IntVar(&apiPort, "api-port", 8080, "API server port")
	sessionGetCmd.Flags().StringVarP(&sessionOutput, "output", "o", "table", "Output format (table|json|yaml)")

	sessionCmd.AddCommand(sessionGetCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}

// sessionView renders a SessionInfo as a table.
type sessionView accumulator.SessionInfo

func (v sessionView) Headers() []string {
	return []string{"User", "Session", "Thinking", "Reply", "Timeout", "Last active"}
}

func (v sessionView) Rows() [][]string {
	return [][]string{{
		strconv.FormatInt(v.UserID, 10),
		strconv.FormatInt(v.SessionID, 10),
		strconv.Itoa(v.ThinkingLength),
		strconv.Itoa(v.ReplyLength),
		v.Timeout.String(),
		v.LastActiveAt.Local().Format("15:04:05"),
	}}
}

func runSessionGet(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(sessionOutput)
	if err != nil {
		return err
	}
	userID, sessionID, err := parseKey(args)
	if err != nil {
		return err
	}

	info, err := newClient().Session(userID, sessionID)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		return output.Print(os.Stdout, format, sessionView(*info))
	}
	return output.Print(os.Stdout, format, info)
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	client := newClient()

	if len(args) == 1 {
		userID, err := parseID("USER_ID", args[0])
		if err != nil {
			return err
		}
		res, err := client.ClearUser(userID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d session(s) of user %d\n", res.Cleared, userID)
		return nil
	}

	userID, sessionID, err := parseKey(args)
	if err != nil {
		return err
	}
	if err := client.ClearSession(userID, sessionID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared session %d of user %d\n", sessionID, userID)
	return nil
}

func parseKey(args []string) (int64, int64, error) {
	userID, err := parseID("USER_ID", args[0])
	if err != nil {
		return 0, 0, err
	}
	sessionID, err := parseID("SESSION_ID", args[1])
	if err != nil {
		return 0, 0, err
	}
	return userID, sessionID, nil
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

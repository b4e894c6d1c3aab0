package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var starsServer string

func init() {
	rootCmd.AddCommand(starsCmd)
	starsCmd.AddCommand(starsGetCmd)
	starsCmd.AddCommand(starsRevokeCmd)
	starsCmd.PersistentFlags().StringVar(&starsServer, "server", "http://127.0.0.1:8077", "Gate server base URL")
}

var starsCmd = &cobra.Command{
	Use:   "stars",
	Short: "Inspect and revoke power stars on a running gate",
}

var starsGetCmd = &cobra.Command{
	Use:   "get <star-id>",
	Short: "Print a star's state and challenges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(starsServer + "/api/stars/" + url.PathEscape(args[0]))
		if err != nil {
			return fmt.Errorf("gate unreachable: %w", err)
		}
		defer resp.Body.Close()

		var body json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gate returned %s: %s", resp.Status, body)
		}
		out, _ := json.MarshalIndent(body, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

var (
	revokeOperator string
	revokeReason   string
)

func init() {
	starsRevokeCmd.Flags().StringVar(&revokeOperator, "operator", "", "Operator id performing the revocation")
	starsRevokeCmd.Flags().StringVar(&revokeReason, "reason", "", "Why the star is being revoked")
	starsRevokeCmd.MarkFlagRequired("operator")
	starsRevokeCmd.MarkFlagRequired("reason")
}

var starsRevokeCmd = &cobra.Command{
	Use:   "revoke <star-id>",
	Short: "Terminally cancel a star",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := json.Marshal(map[string]string{
			"operator": revokeOperator,
			"reason":   revokeReason,
		})
		resp, err := http.Post(
			starsServer+"/api/stars/"+url.PathEscape(args[0])+"/revoke",
			"application/json",
			bytes.NewReader(payload),
		)
		if err != nil {
			return fmt.Errorf("gate unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var envelope struct {
				Error  string `json:"error"`
				Reason string `json:"reason"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&envelope)
			return fmt.Errorf("revoke failed: %s %s", envelope.Error, envelope.Reason)
		}
		fmt.Println("revoked")
		return nil
	},
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/shadowlog"
)

var auditLogDir string

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditReadCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.PersistentFlags().StringVar(&auditLogDir, "log-dir", "logs", "Base directory for shadow and public logs")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the encrypted shadow log",
}

var auditReadCmd = &cobra.Command{
	Use:   "read [date]",
	Short: "Decrypt and print shadow entries for a date (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readShadow(args)
		if err != nil {
			return err
		}
		for _, rec := range records {
			out, _ := json.Marshal(rec)
			fmt.Println(string(out))
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [date]",
	Short: "Check a day's shadow log for undecryptable entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readShadow(args)
		if err != nil {
			return err
		}

		bad := 0
		for _, rec := range records {
			if rec.Error != "" {
				bad++
				fmt.Fprintf(os.Stderr, "TAMPERED %s\n", rec.Error)
			}
		}
		if bad > 0 {
			return fmt.Errorf("%d of %d entries failed to decrypt", bad, len(records))
		}
		fmt.Printf("OK: %d entries verified\n", len(records))
		return nil
	},
}

func readShadow(args []string) ([]shadowlog.Record, error) {
	date := time.Now().UTC().Format(time.DateOnly)
	if len(args) == 1 {
		date = args[0]
	}

	cipher, err := shadowlog.NewCipher()
	if err != nil {
		return nil, err
	}
	logger, err := shadowlog.New(auditLogDir, cipher)
	if err != nil {
		return nil, err
	}
	return logger.ReadShadowLogs(date)
}

package vibeguard

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/audit"
)

var flagHistoryLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past audits of a project (newest first)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(flagPath)
			if err != nil {
				return err
			}
			records, err := audit.NewAuditLog(s.root).LoadHistory()
			if errors.Is(err, os.ErrNotExist) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No audits recorded yet.")
				return nil
			}
			if err != nil {
				return err
			}
			if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
				records = records[:flagHistoryLimit]
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("#", "WHEN", "AUDIT", "CRIT", "HIGH", "MED", "LOW", "NEW", "FILES", "CATEGORIES")
			for i, r := range records {
				cats := make([]string, len(r.Categories))
				for j, c := range r.Categories {
					cats[j] = string(c)
				}
				row := []string{
					strconv.Itoa(i),
					r.Timestamp.Local().Format("2006-01-02 15:04"),
					shortID(r.AuditID),
					strconv.Itoa(r.Summary.Critical),
					strconv.Itoa(r.Summary.High),
					strconv.Itoa(r.Summary.Medium),
					strconv.Itoa(r.Summary.Low),
					strconv.Itoa(r.NewFindings),
					strconv.Itoa(r.FilesScanned),
					strings.Join(cats, ","),
				}
				if err := table.Append(row); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "project path")
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "show at most this many records (0 = all)")

	del := &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete one history record (index as shown by `vibeguard history`)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			s, err := loadSettings(flagPath)
			if err != nil {
				return err
			}
			if err := audit.NewAuditLog(s.root).DeleteRecord(idx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deleted record", idx)
			return nil
		},
	}
	del.Flags().StringVarP(&flagPath, "path", "p", ".", "project path")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(del)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

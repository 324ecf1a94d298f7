package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/kinobot/internal/history"
	"github.com/user/kinobot/internal/types"
)

var (
	historyUser  int64
	historyLimit int
)

func init() {
	historyCmd.Flags().Int64Var(&historyUser, "user", 0, "Telegram user id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", history.DefaultRecentLimit, "number of entries to show")
	historyCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a user's recent requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		entries, err := store.Recent(context.Background(), types.UserID(historyUser), historyLimit)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No requests found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTYPE\tQUERY")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.RequestType,
				e.Query,
			)
		}
		return w.Flush()
	},
}

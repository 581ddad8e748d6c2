package cmd

import "github.com/spf13/cobra"

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Work with snapshot list messages",
	Long: `Encode, decode, and inspect the binary snapshot list messages
exchanged during cluster snapshot administration.`,
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
}

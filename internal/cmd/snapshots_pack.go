package cmd

import (
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/millrace/flowbroker/internal/observability"
	"github.com/millrace/flowbroker/pkg/snapshot"
)

var snapshotsPackCmd = &cobra.Command{
	Use:   "pack",
	Short: "Encode a snapshot manifest into a binary message",
	Long: `Read a YAML snapshot manifest and encode it into a binary
snapshot list message file.

Example manifest:
  snapshots:
    - name: partition-1-00000042
      log_position: 42
      checksum: deadbeef
      length: 1048576

Example:
  flowbroker snapshots pack --manifest snapshots.yaml --out snapshots.bin`,
	RunE: runSnapshotsPack,
}

var (
	packManifest string
	packOut      string
)

func init() {
	snapshotsCmd.AddCommand(snapshotsPackCmd)

	snapshotsPackCmd.Flags().StringVarP(&packManifest, "manifest", "m", "", "YAML snapshot manifest (required)")
	snapshotsPackCmd.Flags().StringVarP(&packOut, "out", "o", "", "Output message file (required)")

	_ = snapshotsPackCmd.MarkFlagRequired("manifest")
	_ = snapshotsPackCmd.MarkFlagRequired("out")
}

func runSnapshotsPack(cmd *cobra.Command, args []string) error {
	m, err := snapshot.LoadManifest(packManifest)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	list, err := m.List()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	buf := make([]byte, list.EncodedLength())
	n, err := list.Encode(buf, 0)
	if err != nil {
		if snapshot.IsUnsupportedEncoding(err) {
			return exitError(foundry.ExitInvalidArgument, "Snapshot name has unsupported encoding", err)
		}
		return exitError(foundry.ExitInvalidArgument, "Cannot encode message", err)
	}

	if err := os.WriteFile(packOut, buf[:n], 0o644); err != nil {
		return exitError(foundry.ExitFileNotFound, "Cannot write message file", err)
	}

	observability.CLILogger.Info("Packed snapshot list message",
		zap.String("manifest", packManifest),
		zap.String("out", packOut),
		zap.Int("snapshots", len(list.Snapshots)),
		zap.Int("bytes", n))
	return nil
}

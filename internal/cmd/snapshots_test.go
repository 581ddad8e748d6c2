package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millrace/flowbroker/pkg/snapshot"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Reset flag state shared across invocations.
	inspectMatch = ""
	inspectJSON = false
	observeTTL = 0
	observeRate = 0
	observeServe = false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func packTestMessage(t *testing.T, manifest string) string {
	t.Helper()

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "snapshots.yaml")
	outPath := filepath.Join(dir, "snapshots.bin")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))

	_, err := executeCommand(t, "snapshots", "pack", "--manifest", manifestPath, "--out", outPath)
	require.NoError(t, err)
	return outPath
}

const testManifest = `
snapshots:
  - name: partition-1-00000042
    log_position: 42
    checksum: deadbeef
    length: 1048576
  - name: partition-2-00000017
    log_position: 17
    length: 2048
`

func TestSnapshotsPackProducesDecodableMessage(t *testing.T) {
	outPath := packTestMessage(t, testManifest)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var list snapshot.List
	require.NoError(t, list.Decode(data, 0, len(data)))
	require.Len(t, list.Snapshots, 2)
	assert.Equal(t, "partition-1-00000042", list.Snapshots[0].Name)
	assert.Equal(t, int64(42), list.Snapshots[0].LogPosition)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, list.Snapshots[0].Checksum)
}

func TestSnapshotsInspect(t *testing.T) {
	outPath := packTestMessage(t, testManifest)

	out, err := executeCommand(t, "snapshots", "inspect", "--file", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "partition-1-00000042")
	assert.Contains(t, out, "partition-2-00000017")
	assert.Contains(t, out, "2 snapshot(s)")
}

func TestSnapshotsInspectMatch(t *testing.T) {
	outPath := packTestMessage(t, testManifest)

	out, err := executeCommand(t, "snapshots", "inspect", "--file", outPath, "--match", "partition-1-*")
	require.NoError(t, err)
	assert.Contains(t, out, "partition-1-00000042")
	assert.NotContains(t, out, "partition-2-00000017")
	assert.Contains(t, out, "1 snapshot(s)")
}

func TestSnapshotsInspectJSON(t *testing.T) {
	outPath := packTestMessage(t, testManifest)

	out, err := executeCommand(t, "snapshots", "inspect", "--file", outPath, "--json")
	require.NoError(t, err)

	var decoded []inspectedSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "deadbeef", decoded[0].Checksum)
	assert.Equal(t, int64(1048576), decoded[0].Length)
}

func TestSnapshotsInspectRejectsTruncatedFile(t *testing.T) {
	outPath := packTestMessage(t, testManifest)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(outPath, data[:len(data)-3], 0o644))

	_, err = executeCommand(t, "snapshots", "inspect", "--file", outPath)
	require.Error(t, err)
	assert.True(t, snapshot.IsBufferUnderflow(err))
}

func TestSnapshotsPackInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("snapshots:\n  - log_position: 1\n"), 0o644))

	_, err := executeCommand(t, "snapshots", "pack",
		"--manifest", manifestPath,
		"--out", filepath.Join(dir, "out.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

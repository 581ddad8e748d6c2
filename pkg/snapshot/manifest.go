package snapshot

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML description of a snapshot list, used by
// tooling to author messages outside a running broker.
type Manifest struct {
	Snapshots []ManifestEntry `yaml:"snapshots"`
}

// ManifestEntry describes one snapshot. Checksum is hex-encoded in the
// manifest and carried as raw bytes on the wire.
type ManifestEntry struct {
	Name        string `yaml:"name"`
	LogPosition int64  `yaml:"log_position"`
	Checksum    string `yaml:"checksum,omitempty"`
	Length      int64  `yaml:"length"`
}

// LoadManifest reads a snapshot manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// List converts the manifest into a wire-encodable snapshot list,
// decoding hex checksums. Entry order is preserved.
func (m *Manifest) List() (*List, error) {
	list := &List{}
	for i, entry := range m.Snapshots {
		if entry.Name == "" {
			return nil, fmt.Errorf("manifest entry %d: name is required", i)
		}
		var checksum []byte
		if entry.Checksum != "" {
			decoded, err := hex.DecodeString(entry.Checksum)
			if err != nil {
				return nil, fmt.Errorf("manifest entry %d: invalid checksum hex: %w", i, err)
			}
			checksum = decoded
		}
		list.Add(entry.Name, entry.LogPosition, checksum, entry.Length)
	}
	return list, nil
}

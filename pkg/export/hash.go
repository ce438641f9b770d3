package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/r3d91ll/tanita/pkg/reader"
)

// HashAlgorithm identifies the hashing algorithm used for dataset hashes.
const HashAlgorithm = "SHA-256"

// DatasetHash identifies the decoded content a report was built from.
// Two runs over the same rows produce the same hash regardless of when
// they ran.
type DatasetHash struct {
	// Hash is the hex-encoded SHA-256 of the canonical row listing.
	Hash string `json:"hash"`

	Algorithm    string    `json:"algorithm"`
	Measurements int       `json:"measurements"`
	Profiles     int       `json:"profiles"`
	ComputedAt   time.Time `json:"computed_at"`

	canonical string
}

// ComputeDatasetHash hashes measurements and profiles. Rows are hashed in the
// order given; each row contributes its source, line and fields in sorted
// code order.
func ComputeDatasetHash(measurements, profiles []reader.Row) *DatasetHash {
	var sb strings.Builder
	writeRows(&sb, "measurement", measurements)
	writeRows(&sb, "profile", profiles)

	canonical := sb.String()
	return &DatasetHash{
		Hash:         hashString(canonical),
		Algorithm:    HashAlgorithm,
		Measurements: len(measurements),
		Profiles:     len(profiles),
		ComputedAt:   time.Now(),
		canonical:    canonical,
	}
}

func writeRows(sb *strings.Builder, kind string, rows []reader.Row) {
	for _, r := range rows {
		fmt.Fprintf(sb, "%s:%s:%d|", kind, r.Source, r.Line)
		for _, code := range r.Record.Codes() {
			sb.WriteString(code)
			sb.WriteString("=")
			sb.WriteString(r.Record.Value(code))
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 8 characters of the full hash.
func (h *DatasetHash) ShortHash() string {
	if len(h.Hash) >= 8 {
		return h.Hash[:8]
	}
	return h.Hash
}

// Verify recomputes the hash from the retained canonical listing.
func (h *DatasetHash) Verify() bool {
	if h.canonical == "" && h.Measurements+h.Profiles > 0 {
		return false
	}
	return hashString(h.canonical) == h.Hash
}

// ToJSON returns the hash as indented JSON.
func (h *DatasetHash) ToJSON() (string, error) {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal dataset hash: %w", err)
	}
	return string(data), nil
}

package records

import (
	"strings"
	"time"

	"dupeguard/internal/similarity"
)

// FileRecord describes one registered download.
type FileRecord struct {
	ID             string
	DisplayName    string
	NormalizedName string
	Size           int64
	StoragePath    string
	SourceLocation string
	Fingerprint    string
	RegisteredAt   time.Time
}

// Normalized returns the record's comparison name, deriving it from
// DisplayName when the stored value is empty.
func (r FileRecord) Normalized() string {
	if strings.TrimSpace(r.NormalizedName) != "" {
		return r.NormalizedName
	}
	return similarity.Normalize(r.DisplayName)
}

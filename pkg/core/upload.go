// pkg/core/upload.go
package core

// UploadMetadata describes an exported replay to the web service that
// receives it.
type UploadMetadata struct {
	Hash            string
	MapName         string
	MatchHistoryID  uint64
	DurationSeconds float64
	Players         []string
	Version         uint16
}

// NewUploadMetadata summarizes r for upload.
func NewUploadMetadata(hash string, r *Replay) UploadMetadata {
	m := UploadMetadata{
		Hash:            hash,
		MapName:         r.Map.LocalizedNameID,
		MatchHistoryID:  r.MatchHistoryID,
		DurationSeconds: r.Duration().Seconds(),
		Version:         r.Version,
	}
	if m.MapName == "" {
		m.MapName = r.Map.Filename
	}
	for _, p := range r.Players {
		m.Players = append(m.Players, p.Name)
	}
	return m
}

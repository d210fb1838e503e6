package idxtype

// ProgressEvent represents a progress update while indexing an archive.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the archive being processed.
	Path string

	// Members is the number of members recorded so far.
	Members int

	// BytesDone is the offset reached in the archive.
	BytesDone int64

	// BytesTotal is the archive size in bytes.
	BytesTotal int64
}

// Percent returns BytesDone as a percentage of BytesTotal.
func (e ProgressEvent) Percent() float64 {
	if e.BytesTotal <= 0 {
		return 0
	}
	return float64(e.BytesDone) * 100 / float64(e.BytesTotal)
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for indexing.
const (
	// StageScanning indicates members are being read and recorded.
	StageScanning ProgressStage = iota

	// StageCommitting indicates the archive's rows are being committed.
	StageCommitting

	// StageDone indicates the archive has been fully processed.
	StageDone
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageCommitting:
		return "committing"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during indexing.
type ProgressFunc func(ProgressEvent)

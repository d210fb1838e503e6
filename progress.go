package tarindex

import "github.com/meigma/tarindex/internal/idxtype"

// Re-export progress types from internal/idxtype.
type (
	// ProgressEvent represents a progress update while indexing an archive.
	ProgressEvent = idxtype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = idxtype.ProgressStage

	// ProgressFunc receives progress updates during indexing.
	ProgressFunc = idxtype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageScanning indicates members are being read and recorded.
	StageScanning = idxtype.StageScanning

	// StageCommitting indicates the archive's rows are being committed.
	StageCommitting = idxtype.StageCommitting

	// StageDone indicates the archive has been fully processed.
	StageDone = idxtype.StageDone
)

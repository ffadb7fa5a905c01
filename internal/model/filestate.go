package model

// FileState is a vendor-side lifecycle tag attached to a remote file. The
// vendor owns all state transitions; the local system only observes them
// through polling or callbacks and reacts.
type FileState string

const (
	// FileStateReferenceAdd marks an auxiliary reference file (source or
	// preview URL) uploaded alongside the translatable content.
	FileStateReferenceAdd FileState = "ReferenceAdd"

	// FileStateResourcePreviewURL marks a reference file updated with a
	// live preview URL once preliminary translations exist.
	FileStateResourcePreviewURL FileState = "ResourcePreviewUrl"

	// FileStateTranslatableSource marks uploaded source content waiting
	// for translation.
	FileStateTranslatableSource FileState = "TranslatableSource"

	// FileStateTranslatableReviewPreview marks a preliminary translation
	// exposed for review.
	FileStateTranslatableReviewPreview FileState = "TranslatableReviewPreview"

	// FileStateTranslatableComplete marks a finished translation.
	FileStateTranslatableComplete FileState = "TranslatableComplete"

	// Restart points are vendor-defined error states used to report a
	// problem back through the same file-state channel.
	FileStateRestartPoint01 FileState = "RestartPoint01"
	FileStateRestartPoint02 FileState = "RestartPoint02"
	FileStateRestartPoint03 FileState = "RestartPoint03"
)

// Final reports whether translations retrieved in this state are final
// rather than preliminary.
func (s FileState) Final() bool {
	return s == FileStateTranslatableComplete
}

// Valid reports whether s is one of the known vendor file states.
func (s FileState) Valid() bool {
	switch s {
	case FileStateReferenceAdd, FileStateResourcePreviewURL,
		FileStateTranslatableSource, FileStateTranslatableReviewPreview,
		FileStateTranslatableComplete,
		FileStateRestartPoint01, FileStateRestartPoint02, FileStateRestartPoint03:
		return true
	}
	return false
}

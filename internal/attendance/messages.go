package attendance

import "fmt"

// User-facing status and toast texts.
const (
	StatusIdle      = "Attendance not started yet"
	StatusDetecting = "Detecting face..."

	MsgCaptureFailed    = "Failed to capture an image from the webcam."
	MsgModelLoadFailed  = "Failed to load the model."
	MsgProcessingFailed = "Failed to process the image."
	MsgNotRecognized    = "Face not recognized. Please try again."

	StatusSaveFailed = "Failed to save attendance"
	MsgSaveFailed    = "An error occurred while saving."
)

// StatusRecorded is the status line after a successful write.
func StatusRecorded(identity string) string {
	return fmt.Sprintf("Attendance recorded: %s", identity)
}

// MsgRecorded is the success toast after a successful write.
func MsgRecorded(identity string) string {
	return fmt.Sprintf("Attendance recorded for %s", identity)
}

package platform

// AppName is reported to notification daemons that group by application.
const AppName = "maskeraser"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Urgent asks the notification center to keep the message visible until
	// dismissed, where supported.
	Urgent bool
}

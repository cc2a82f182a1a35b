package platform

import "time"

// DefaultAppName is reported to notification servers that group by sender.
const DefaultAppName = "Annotator"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender. Empty means DefaultAppName.
	AppName string
	// IconPath points to an image shown with the notification where supported.
	IconPath string
	// Timeout is how long the notification stays visible. Zero lets the
	// platform decide.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return DefaultAppName
	}
	return o.AppName
}

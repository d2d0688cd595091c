package models

import "time"

// WatchStatus is a user's declared intent or progress for a media item.
type WatchStatus string

const (
	WatchUnknown WatchStatus = "unknown"
	WatchToSee   WatchStatus = "toSee"
	WatchSeen    WatchStatus = "seen"
	WatchWontSee WatchStatus = "wontSee"
)

// ValidWatchStatus reports whether s is one of the accepted values.
func ValidWatchStatus(s WatchStatus) bool {
	switch s {
	case WatchUnknown, WatchToSee, WatchSeen, WatchWontSee:
		return true
	}
	return false
}

// UserStatus is one user's watch state on a movie or episode.
type UserStatus struct {
	UserName string      `json:"userName"`
	Status   WatchStatus `json:"currentStatus"`
	Position float64     `json:"position"` // seconds
	SeenTs   []time.Time `json:"seenTs"`
}

// completionRatio is the fraction of the duration past which a playback
// position counts as a completed viewing.
const completionRatio = 0.9

// seenDedupWindow collapses repeated completions into one viewing: a new
// seen timestamp is only recorded when the previous one is older than this.
const seenDedupWindow = 24 * time.Hour

// SetPosition upserts the user's entry in list and records the playback
// position. A position past 90% of the duration counts as a completed
// viewing: the position resets to zero, the status flips to seen, and a
// timestamp is appended unless the last one is less than 24h old.
func SetPosition(list *[]UserStatus, userName string, position float64, duration int) {
	setPosition(list, userName, position, duration, time.Now())
}

func setPosition(list *[]UserStatus, userName string, position float64, duration int, now time.Time) {
	st := upsert(list, userName)
	st.Position = position

	if duration <= 0 || position <= completionRatio*float64(duration) {
		return
	}

	st.Position = 0
	st.Status = WatchSeen
	if n := len(st.SeenTs); n == 0 || now.Sub(st.SeenTs[n-1]) > seenDedupWindow {
		st.SeenTs = append(st.SeenTs, now)
	}
}

// SetStatus upserts the user's entry in list and overwrites its status.
func SetStatus(list *[]UserStatus, userName string, status WatchStatus) {
	upsert(list, userName).Status = status
}

func upsert(list *[]UserStatus, userName string) *UserStatus {
	for i := range *list {
		if (*list)[i].UserName == userName {
			return &(*list)[i]
		}
	}
	*list = append(*list, UserStatus{UserName: userName, Status: WatchUnknown})
	return &(*list)[len(*list)-1]
}

// SetShowStatus upserts the user's entry in a show's reduced status list.
func SetShowStatus(list *[]ShowUserStatus, userName string, status WatchStatus) {
	for i := range *list {
		if (*list)[i].UserName == userName {
			(*list)[i].Status = status
			return
		}
	}
	*list = append(*list, ShowUserStatus{UserName: userName, Status: status})
}

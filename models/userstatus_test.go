package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetStatus_UpsertOnce(t *testing.T) {
	var list []UserStatus

	SetStatus(&list, "alice", WatchToSee)
	SetStatus(&list, "alice", WatchToSee)

	assert.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].UserName)
	assert.Equal(t, WatchToSee, list[0].Status)
}

func TestSetStatus_MultipleUsers(t *testing.T) {
	var list []UserStatus

	SetStatus(&list, "alice", WatchToSee)
	SetStatus(&list, "bob", WatchWontSee)
	SetStatus(&list, "alice", WatchSeen)

	assert.Len(t, list, 2)
	assert.Equal(t, WatchSeen, list[0].Status)
	assert.Equal(t, WatchWontSee, list[1].Status)
}

func TestSetPosition_BelowThreshold(t *testing.T) {
	var list []UserStatus

	SetPosition(&list, "alice", 600, 7200)

	assert.Len(t, list, 1)
	assert.Equal(t, 600.0, list[0].Position)
	assert.Equal(t, WatchUnknown, list[0].Status)
	assert.Empty(t, list[0].SeenTs)
}

func TestSetPosition_Completion(t *testing.T) {
	var list []UserStatus

	// 95% of a two hour movie counts as a completed viewing
	SetPosition(&list, "alice", 0.95*7200, 7200)

	assert.Len(t, list, 1)
	assert.Equal(t, 0.0, list[0].Position)
	assert.Equal(t, WatchSeen, list[0].Status)
	assert.Len(t, list[0].SeenTs, 1)
}

func TestSetPosition_SeenDedupWithinWindow(t *testing.T) {
	var list []UserStatus

	// Two completions within the same hour record a single viewing
	now := time.Now()
	setPosition(&list, "alice", 0.95*7200, 7200, now)
	setPosition(&list, "alice", 0.95*7200, 7200, now.Add(time.Hour))

	assert.Len(t, list[0].SeenTs, 1)
}

func TestSetPosition_SeenRecordedAfterWindow(t *testing.T) {
	var list []UserStatus

	now := time.Now()
	setPosition(&list, "alice", 0.95*7200, 7200, now)
	setPosition(&list, "alice", 0.95*7200, 7200, now.Add(25*time.Hour))

	assert.Len(t, list[0].SeenTs, 2)
}

func TestSetPosition_UnknownDuration(t *testing.T) {
	var list []UserStatus

	// An unprobed file never flips to seen, whatever the position
	SetPosition(&list, "alice", 9000, UnsetID)

	assert.Equal(t, 9000.0, list[0].Position)
	assert.Equal(t, WatchUnknown, list[0].Status)
	assert.Empty(t, list[0].SeenTs)
}

func TestSetShowStatus_UpsertOnce(t *testing.T) {
	var list []ShowUserStatus

	SetShowStatus(&list, "alice", WatchToSee)
	SetShowStatus(&list, "alice", WatchSeen)

	assert.Len(t, list, 1)
	assert.Equal(t, WatchSeen, list[0].Status)
}

func TestValidWatchStatus(t *testing.T) {
	assert.True(t, ValidWatchStatus(WatchSeen))
	assert.True(t, ValidWatchStatus(WatchUnknown))
	assert.False(t, ValidWatchStatus("watched"))
}

package actions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket_guard/model"
)

func TestActionRecords(t *testing.T) {
	assert := assert.New(t)
	db, err := Init(":memory:")
	require.NoError(t, err)
	defer db.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []model.ActionRecord{
		{GuildID: "g1", UserID: "u1", ActionType: "timeout", Reason: "invite link", ViolationCount: 5, DurationSecs: 3600, Succeeded: true, Timestamp: base.Unix()},
		{GuildID: "g1", UserID: "u1", ActionType: "kick", Reason: "blocked word", ViolationCount: 5, Succeeded: false, Timestamp: base.Add(time.Hour).Unix()},
		{GuildID: "g1", UserID: "u2", ActionType: "timeout", ViolationCount: 6, Succeeded: true, Timestamp: base.Add(2 * time.Hour).Unix()},
		{GuildID: "g2", UserID: "u1", ActionType: "ban", Succeeded: true, Timestamp: base.Unix()},
	}
	for _, r := range records {
		id, err := AddActionRecord(db, r)
		require.NoError(t, err)
		assert.Positive(id)
	}

	got, err := GetActionRecordsByUserID(db, "g1", "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal("kick", got[0].ActionType)
	assert.False(got[0].Succeeded)
	assert.Equal("timeout", got[1].ActionType)
	assert.Equal(int64(3600), got[1].DurationSecs)

	limited, err := GetActionRecordsByUserID(db, "g1", "u1", 1)
	require.NoError(t, err)
	assert.Len(limited, 1)

	counts, err := GetActionCountsSince(db, "g1", base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(map[string]int{"kick": 1, "timeout": 1}, counts)

	removed, err := DeleteActionRecordsBefore(db, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(int64(2), removed)
}

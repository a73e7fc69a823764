package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("08:05")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 8, Minute: 5}, c)
	assert.Equal(t, "08:05", c.String())

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd", "-1:00"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestTablesFor(t *testing.T) {
	ts := Defaults()

	_, ok := ts.For(time.Friday).Lookup(7)
	assert.False(t, ok, "friday period 7 is the self-study slot")

	fri5, ok := ts.For(time.Friday).Lookup(5)
	require.True(t, ok)
	assert.Equal(t, "11:30", fri5.Start.String())

	mon5, ok := ts.For(time.Monday).Lookup(5)
	require.True(t, ok)
	assert.Equal(t, "11:25", mon5.Start.String())
	assert.Equal(t, 45*time.Minute, mon5.Duration())
}

func TestDefaultsValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
	assert.Equal(t, []int{1, 3, 5, 6, 8, 9}, DefaultWeekday().Periods())
}

func TestValidate(t *testing.T) {
	bad := Table{2: {Start: MustClock("10:00"), End: MustClock("09:00")}}
	assert.Error(t, bad.Validate())

	outOfRange := Table{11: {Start: MustClock("08:00"), End: MustClock("09:00")}}
	assert.Error(t, outOfRange.Validate())

	err := Tables{Weekday: DefaultWeekday(), Friday: bad}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "friday")
}

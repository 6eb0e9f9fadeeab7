package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRevisionAWindows(t *testing.T) {
	require.Equal(t, Window{Low: 510, High: 690}, RevisionA.OneWindow())
	require.Equal(t, Window{Low: 340, High: 460}, RevisionA.ZeroWindow())
	require.False(t, RevisionA.OneWindow().Overlaps(RevisionA.ZeroWindow()))
}

func TestRevisionTable(t *testing.T) {
	require.Equal(t, 16, RevisionA.MessageLength())
	require.Equal(t, uint32(1000), RevisionA.BitPeriod())
	require.Equal(t, SyncBoundedWindow, RevisionA.Sync())
	require.Equal(t, uint32(20000), RevisionA.Deadline())
	require.True(t, RevisionA.MasksInterrupts())
	_, ok := RevisionA.Trainer()
	require.False(t, ok)

	require.Equal(t, 8, RevisionB.MessageLength())
	require.Equal(t, uint32(10000), RevisionB.BitPeriod())
	require.Equal(t, SyncUnboundedRetry, RevisionB.Sync())
	require.Equal(t, uint32(0), RevisionB.Deadline())
	require.False(t, RevisionB.MasksInterrupts())
	tr, ok := RevisionB.Trainer()
	require.True(t, ok)
	require.Equal(t, Trainer{HalfPeriod: 25, RepeatCount: 40}, tr)
	require.Equal(t, uint32(2000), tr.Duration())

	require.Equal(t, uint32(16000), RevisionA.TransmitDuration())
	require.Equal(t, uint32(84000), RevisionB.TransmitDuration())
}

func TestNewProfileRejects(t *testing.T) {
	valid := ProfileConfig{
		Name:            "custom",
		BitPeriod:       1000,
		OneDutyRatio:    0.6,
		ZeroDutyRatio:   0.4,
		Tolerance:       0.15,
		MessageLength:   16,
		Sync:            SyncBoundedWindow,
		DeadlinePeriods: 20,
	}

	testCases := []struct {
		name   string
		modify func(*ProfileConfig)
		expect error
	}{
		{"zero period", func(c *ProfileConfig) { c.BitPeriod = 0 }, ErrBadPeriod},
		{"zero length", func(c *ProfileConfig) { c.MessageLength = 0 }, ErrBadLength},
		{"ratio one", func(c *ProfileConfig) { c.OneDutyRatio = 1 }, ErrBadDutyRatio},
		{"ratio zero", func(c *ProfileConfig) { c.ZeroDutyRatio = 0 }, ErrBadDutyRatio},
		{"tolerance too wide", func(c *ProfileConfig) { c.Tolerance = 0.2 }, ErrBadTolerance},
		{"tolerance zero", func(c *ProfileConfig) { c.Tolerance = 0 }, ErrBadTolerance},
		{"overlap", func(c *ProfileConfig) { c.OneDutyRatio = 0.5; c.ZeroDutyRatio = 0.45 }, ErrOverlappingWindows},
		{"touching windows", func(c *ProfileConfig) { c.OneDutyRatio = 0.55; c.ZeroDutyRatio = 0.45; c.Tolerance = 0.1 }, nil},
		{"no deadline", func(c *ProfileConfig) { c.DeadlinePeriods = 0 }, ErrBadDeadline},
		{"unknown sync", func(c *ProfileConfig) { c.Sync = SyncStrategy(9) }, ErrUnknownSync},
		{"empty trainer", func(c *ProfileConfig) { c.Trainer = &Trainer{HalfPeriod: 25} }, ErrBadTrainer},
		{"valid", func(c *ProfileConfig) {}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.modify(&cfg)
			_, err := NewProfile(cfg)
			if tc.expect == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expect)
		})
	}
}

func TestNewProfileCopiesTrainer(t *testing.T) {
	tr := &Trainer{HalfPeriod: 25, RepeatCount: 4}
	p, err := NewProfile(ProfileConfig{
		BitPeriod:     1000,
		OneDutyRatio:  0.6,
		ZeroDutyRatio: 0.4,
		Tolerance:     0.1,
		MessageLength: 4,
		Trainer:       tr,
		Sync:          SyncUnboundedRetry,
	})
	require.NoError(t, err)
	tr.RepeatCount = 99
	got, _ := p.Trainer()
	require.Equal(t, uint32(4), got.RepeatCount)
}

func TestProfileLookup(t *testing.T) {
	p, err := ProfileByName("b")
	require.NoError(t, err)
	require.Equal(t, RevisionB.Name(), p.Name())

	p, err = ProfileByID(0)
	require.NoError(t, err)
	require.Equal(t, "a", p.Name())

	_, err = ProfileByName("c")
	require.ErrorIs(t, err, ErrUnknownProfile)
	_, err = ProfileByID(2)
	require.ErrorIs(t, err, ErrUnknownProfile)
}

func TestElapsedMicrosWraps(t *testing.T) {
	require.Equal(t, uint32(0x20), ElapsedMicros(0x10, 0xFFFFFFF0))
	require.Equal(t, uint32(500), ElapsedMicros(1500, 1000))
}

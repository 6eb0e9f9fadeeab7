package core

import "math"

// SyncStrategy selects how a receiver locks onto the unframed bitstream
type SyncStrategy uint8

const (
	// SyncBoundedWindow waits for a first valid pulse, then gives the rest of
	// the message a fixed deadline counted from that pulse.
	SyncBoundedWindow SyncStrategy = iota
	// SyncUnboundedRetry waits for every position with no deadline at all.
	SyncUnboundedRetry
)

func (s SyncStrategy) String() string {
	switch s {
	case SyncBoundedWindow:
		return "bounded-window"
	case SyncUnboundedRetry:
		return "unbounded-retry"
	default:
		return "unknown"
	}
}

// Trainer is the rapid toggle sequence sent around the data to settle the
// receiver's gain control
type Trainer struct {
	HalfPeriod  uint32 // µs per high or low phase
	RepeatCount uint32 // number of high/low pairs
}

// Duration returns the total trainer length in µs
func (t Trainer) Duration() uint32 {
	return 2 * t.HalfPeriod * t.RepeatCount
}

// Profile is an immutable protocol revision. Build custom ones with NewProfile.
type Profile struct {
	name            string
	bitPeriod       uint32
	oneDutyRatio    float64
	zeroDutyRatio   float64
	tolerance       float64
	messageLength   int
	trainer         *Trainer
	sync            SyncStrategy
	deadlinePeriods uint32
}

// ProfileConfig holds the fields of a profile before validation
type ProfileConfig struct {
	Name            string
	BitPeriod       uint32 // µs
	OneDutyRatio    float64
	ZeroDutyRatio   float64
	Tolerance       float64
	MessageLength   int
	Trainer         *Trainer
	Sync            SyncStrategy
	DeadlinePeriods uint32 // bounded-window only, counted from the first valid pulse
}

// Maximum tolerance; wider windows start mixing up ones and zeros.
const MaxTolerance = 0.2

var (
	// RevisionA is the 16-bit, 1 kbit/s profile with a bounded receive window
	RevisionA = mustProfile(ProfileConfig{
		Name:            "a",
		BitPeriod:       1000,
		OneDutyRatio:    0.6,
		ZeroDutyRatio:   0.4,
		Tolerance:       0.15,
		MessageLength:   16,
		Sync:            SyncBoundedWindow,
		DeadlinePeriods: 20,
	})

	// RevisionB is the 8-bit, 100 bit/s profile with trainer and unbounded receive
	RevisionB = mustProfile(ProfileConfig{
		Name:          "b",
		BitPeriod:     10000,
		OneDutyRatio:  0.6,
		ZeroDutyRatio: 0.4,
		Tolerance:     0.10,
		MessageLength: 8,
		Trainer:       &Trainer{HalfPeriod: 25, RepeatCount: 40},
		Sync:          SyncUnboundedRetry,
	})
)

// Profiles lists the built-in revisions, indexed by their wire id
var Profiles = []Profile{RevisionA, RevisionB}

// ProfileByName looks up a built-in revision ("a" or "b")
func ProfileByName(name string) (Profile, error) {
	for _, p := range Profiles {
		if p.name == name {
			return p, nil
		}
	}
	return Profile{}, ErrUnknownProfile
}

// ProfileByID looks up a built-in revision by its index in Profiles
func ProfileByID(id uint32) (Profile, error) {
	if int(id) >= len(Profiles) {
		return Profile{}, ErrUnknownProfile
	}
	return Profiles[id], nil
}

// NewProfile validates cfg and freezes it into a Profile
func NewProfile(cfg ProfileConfig) (Profile, error) {
	if cfg.BitPeriod == 0 {
		return Profile{}, ErrBadPeriod
	}
	if cfg.MessageLength <= 0 {
		return Profile{}, ErrBadLength
	}
	if !inOpenUnit(cfg.OneDutyRatio) || !inOpenUnit(cfg.ZeroDutyRatio) {
		return Profile{}, ErrBadDutyRatio
	}
	if !(cfg.Tolerance > 0 && cfg.Tolerance < MaxTolerance) {
		return Profile{}, ErrBadTolerance
	}

	p := Profile{
		name:            cfg.Name,
		bitPeriod:       cfg.BitPeriod,
		oneDutyRatio:    cfg.OneDutyRatio,
		zeroDutyRatio:   cfg.ZeroDutyRatio,
		tolerance:       cfg.Tolerance,
		messageLength:   cfg.MessageLength,
		sync:            cfg.Sync,
		deadlinePeriods: cfg.DeadlinePeriods,
	}
	if p.OneWindow().Overlaps(p.ZeroWindow()) {
		return Profile{}, ErrOverlappingWindows
	}

	switch cfg.Sync {
	case SyncBoundedWindow:
		if cfg.DeadlinePeriods == 0 {
			return Profile{}, ErrBadDeadline
		}
	case SyncUnboundedRetry:
		p.deadlinePeriods = 0
	default:
		return Profile{}, ErrUnknownSync
	}

	if cfg.Trainer != nil {
		if cfg.Trainer.HalfPeriod == 0 || cfg.Trainer.RepeatCount == 0 {
			return Profile{}, ErrBadTrainer
		}
		t := *cfg.Trainer
		p.trainer = &t
	}
	return p, nil
}

func mustProfile(cfg ProfileConfig) Profile {
	p, err := NewProfile(cfg)
	if err != nil {
		panic("invalid built-in profile " + cfg.Name + ": " + err.Error())
	}
	return p
}

func inOpenUnit(v float64) bool {
	return v > 0 && v < 1
}

func (p Profile) Name() string            { return p.name }
func (p Profile) BitPeriod() uint32       { return p.bitPeriod }
func (p Profile) OneDutyRatio() float64   { return p.oneDutyRatio }
func (p Profile) ZeroDutyRatio() float64  { return p.zeroDutyRatio }
func (p Profile) Tolerance() float64      { return p.tolerance }
func (p Profile) MessageLength() int      { return p.messageLength }
func (p Profile) Sync() SyncStrategy      { return p.sync }
func (p Profile) DeadlinePeriods() uint32 { return p.deadlinePeriods }

// Trainer returns the trainer settings and whether one is configured
func (p Profile) Trainer() (Trainer, bool) {
	if p.trainer == nil {
		return Trainer{}, false
	}
	return *p.trainer, true
}

// Deadline returns the bounded-window budget in µs after the synchronization
// epoch. Zero for unbounded-retry profiles.
func (p Profile) Deadline() uint32 {
	return p.deadlinePeriods * p.bitPeriod
}

// MasksInterrupts reports whether send and receive run inside a critical
// section. Unbounded-retry waits can last forever and would starve the host.
func (p Profile) MasksInterrupts() bool {
	return p.sync == SyncBoundedWindow
}

// TransmitDuration returns the deterministic blocking time of one send in µs
func (p Profile) TransmitDuration() uint32 {
	d := uint32(p.messageLength) * p.bitPeriod
	if t, ok := p.Trainer(); ok {
		d += 2 * t.Duration()
	}
	return d
}

// OneWindow returns the open interval of pulse widths that decode to One
func (p Profile) OneWindow() Window {
	return newWindow(p.bitPeriod, p.oneDutyRatio, p.tolerance)
}

// ZeroWindow returns the open interval of pulse widths that decode to Zero
func (p Profile) ZeroWindow() Window {
	return newWindow(p.bitPeriod, p.zeroDutyRatio, p.tolerance)
}

// Window is an open interval of pulse widths in µs
type Window struct {
	Low  float64
	High float64
}

func newWindow(period uint32, ratio, tol float64) Window {
	nominal := float64(period) * ratio
	return Window{
		Low:  snap(nominal * (1 - tol)),
		High: snap(nominal * (1 + tol)),
	}
}

// snap removes binary rounding noise so decimal edges such as 510 stay exact
func snap(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Contains reports strict membership; edge values are outside
func (w Window) Contains(us float64) bool {
	return us > w.Low && us < w.High
}

// Overlaps reports whether two open intervals share any point
func (w Window) Overlaps(o Window) bool {
	return w.Low < o.High && o.Low < w.High
}

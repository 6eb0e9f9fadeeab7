package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/rs/zerolog"

	"delphi/core"
	"delphi/host/config"
	"delphi/host/publish"
	"delphi/host/station"
	"delphi/sim"
)

// app is the state shared by shell commands
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	st      *station.Station
	profile core.Profile
	timeout time.Duration

	fw  *sim.Firmware      // set with -sim
	pub *publish.Publisher // set when a broker is configured
}

func newShell(a *app) *ishell.Shell {
	sh := ishell.New()
	sh.SetPrompt("delphi > ")
	cmds := []*ishell.Cmd{
		{Name: "info", Help: "show the firmware dictionary", Func: a.cmdInfo},
		{Name: "profile", Help: "profile [a|b]: show or select the protocol revision", Func: a.cmdProfile},
		{Name: "send", Help: "send <bits>: transmit one message, e.g. send 1011_0010", Func: a.cmdSend},
		{Name: "trainer", Help: "emit the trainer sequence alone", Func: a.cmdTrainer},
		{Name: "receive", Help: "receive [count]: wait for messages and print them", Func: a.cmdReceive},
		{Name: "events", Help: "dump the firmware event ring", Func: a.cmdEvents},
		{Name: "clock", Help: "read the firmware clock", Func: a.cmdClock},
	}
	if a.fw != nil {
		cmds = append(cmds, &ishell.Cmd{
			Name: "inject",
			Help: "inject <bits>: put a transmission on the simulated air",
			Func: a.cmdInject,
		})
	}
	for _, c := range cmds {
		sh.AddCmd(c)
	}
	return sh
}

func (a *app) cmdInfo(c *ishell.Context) {
	d := a.st.Dictionary()
	names := make([]string, 0, len(d.Constants))
	for k := range d.Constants {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		c.Printf("%s = %s\n", k, d.Constants[k])
	}
	for _, e := range d.Entries() {
		c.Printf("[%2d] %s %s\n", e.ID, e.Name, e.Format)
	}
}

func (a *app) cmdProfile(c *ishell.Context) {
	if len(c.Args) == 0 {
		p := a.profile
		c.Printf("%s: period=%dus one=%.2f zero=%.2f tol=%.2f length=%d sync=%s\n",
			p.Name(), p.BitPeriod(), p.OneDutyRatio(), p.ZeroDutyRatio(),
			p.Tolerance(), p.MessageLength(), p.Sync())
		return
	}
	p, err := core.ProfileByName(strings.ToLower(c.Args[0]))
	if err != nil {
		c.Err(err)
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.st.Configure(ctx, p, a.cfg.TxPin, a.cfg.RxPin); err != nil {
		c.Err(err)
		return
	}
	a.profile = p
	c.Println("profile " + p.Name())
}

func (a *app) parseBits(c *ishell.Context) ([]bool, bool) {
	bits, err := core.ParseBits(strings.Join(c.Args, ""))
	if err != nil {
		c.Err(err)
		return nil, false
	}
	if len(bits) != a.profile.MessageLength() {
		c.Err(fmt.Errorf("%w: got %d bits, profile %s needs %d",
			core.ErrMessageLength, len(bits), a.profile.Name(), a.profile.MessageLength()))
		return nil, false
	}
	return bits, true
}

func (a *app) cmdSend(c *ishell.Context) {
	bits, ok := a.parseBits(c)
	if !ok {
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	n, err := a.st.Send(ctx, bits)
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("sent %d bits in %dus\n", n, a.profile.TransmitDuration())
}

func (a *app) cmdTrainer(c *ishell.Context) {
	ctx, cancel := a.ctx()
	defer cancel()
	n, err := a.st.Trainer(ctx)
	if err != nil {
		c.Err(err)
		return
	}
	if n == 0 {
		c.Println("profile has no trainer")
		return
	}
	c.Printf("sent %d trainer pulses\n", n)
}

func (a *app) cmdReceive(c *ishell.Context) {
	count := 1
	if len(c.Args) > 0 {
		n, err := strconv.Atoi(c.Args[0])
		if err != nil || n < 1 {
			c.Err(fmt.Errorf("bad count %q", c.Args[0]))
			return
		}
		count = n
	}
	for i := 0; i < count; i++ {
		ctx, cancel := a.ctx()
		r, err := a.st.Receive(ctx)
		cancel()
		if err != nil {
			c.Err(err)
			return
		}
		c.Printf("%s invalid=%d elapsed=%dus\n", r.Message, r.Invalid, r.Elapsed)
		a.publish(r)
	}
}

func (a *app) publish(r station.Reception) {
	if a.pub == nil {
		return
	}
	rec := publish.NewRecord(a.pub.ID(), a.profile.Name(), r, time.Now())
	if err := a.pub.Publish(rec); err != nil {
		a.log.Warn().Err(err).Msg("publish failed")
	}
}

func (a *app) cmdEvents(c *ishell.Context) {
	ctx, cancel := a.ctx()
	defer cancel()
	events, err := a.st.Events(ctx)
	if err != nil {
		c.Err(err)
		return
	}
	if len(events) == 0 {
		c.Println("no events")
		return
	}
	for _, e := range events {
		c.Printf("%10d %-14s v1=%d v2=%d\n", e.Clock, core.EventName(e.Type), e.Value1, e.Value2)
	}
}

func (a *app) cmdClock(c *ishell.Context) {
	ctx, cancel := a.ctx()
	defer cancel()
	now, err := a.st.Clock(ctx)
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("clock %d\n", now)
}

func (a *app) cmdInject(c *ishell.Context) {
	bits, ok := a.parseBits(c)
	if !ok {
		return
	}
	a.fw.Inject(a.profile, bits)
	c.Printf("injected %d bits\n", len(bits))
}

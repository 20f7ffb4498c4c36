package memory

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/hibernation"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform/fake"
)

type killRecorder struct {
	modes   []string
	victims []int
}

func (k *killRecorder) RecordKill(mode string, victims int) {
	k.modes = append(k.modes, mode)
	k.victims = append(k.victims, victims)
}

type harness struct {
	reg     *window.Registry
	src     *fake.Source
	sig     *fake.Signaler
	ctrl    *Controller
	metrics *killRecorder
	got     []window.Notification
}

func newHarness(t *testing.T, auto bool) *harness {
	t.Helper()
	h := &harness{src: fake.NewSource(), sig: &fake.Signaler{}, metrics: &killRecorder{}}
	cat := catalog.New(
		catalog.Descriptor{Class: "email", Name: "Email", Service: "com.nokia.email", CanHibernate: true},
		catalog.Descriptor{Class: "browser", Name: "Web", Service: "com.nokia.browser", CanHibernate: true},
		catalog.Descriptor{Class: "calc", Name: "Calculator", Service: "com.nokia.calc"},
	)
	h.reg = window.NewRegistry(cat, h.src, zaptest.NewLogger(t))
	h.reg.Subscribe(func(n window.Notification) { h.got = append(h.got, n) })

	hib := hibernation.New(h.reg, hibernation.Options{
		WindowManager: &fake.WindowManager{},
		Signaler:      h.sig,
		Scheduler:     loop.NewManual(),
	})
	h.ctrl = New(h.reg, hib, Options{
		AutoBackgroundKill: auto,
		Logger:             zaptest.NewLogger(t),
		Metrics:            h.metrics,
	})

	h.src.Map(1, &fake.Window{Class: "email", PID: 101})
	h.src.Map(2, &fake.Window{Class: "calc", PID: 102})
	h.src.Map(3, &fake.Window{Class: "browser", PID: 103})
	ids, err := h.src.ClientList()
	require.NoError(t, err)
	h.reg.Reconcile(ids)
	return h
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		err  bool
	}{
		{in: "lru", want: Mode{Kind: ModeLRU}},
		{in: "all", want: Mode{Kind: ModeAll}},
		{in: "app:com.nokia.email", want: Mode{Kind: ModeApp, Service: "com.nokia.email"}},
		{in: "app:", err: true},
		{in: "LRU", err: true},
		{in: "", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownKillMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestKillLRUPicksOldestCapableWindow(t *testing.T) {
	h := newHarness(t, false)

	n, err := h.ctrl.Kill("lru")
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []int{101}, h.sig.PIDs(syscall.SIGTERM))
	assert.Equal(t, []string{"lru"}, h.metrics.modes)
}

func TestKillLRUSkipsHibernatingWindows(t *testing.T) {
	h := newHarness(t, false)
	h.src.Unmap(1)
	ids, _ := h.src.ClientList()
	h.reg.Reconcile(ids)

	_, err := h.ctrl.Kill("lru")
	require.NoError(t, err)
	assert.Equal(t, []int{103}, h.sig.PIDs(syscall.SIGTERM))
}

func TestKillLRUMovesPastPendingKill(t *testing.T) {
	h := newHarness(t, false)

	n, err := h.ctrl.Kill("lru")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = h.ctrl.Kill("lru")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{101, 103}, h.sig.PIDs(syscall.SIGTERM))

	n, err = h.ctrl.Kill("lru")
	require.NoError(t, err)
	assert.Zero(t, n, "every capable window is already being killed")
	assert.Len(t, h.sig.Sent, 2)
	assert.Equal(t, []int{1, 1, 0}, h.metrics.victims)
}

func TestKillAll(t *testing.T) {
	h := newHarness(t, false)

	n, err := h.ctrl.Kill("all")
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []int{101, 103}, h.sig.PIDs(syscall.SIGTERM))
}

func TestKillApp(t *testing.T) {
	h := newHarness(t, false)

	n, err := h.ctrl.Kill("app:com.nokia.browser")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{103}, h.sig.PIDs(syscall.SIGTERM))

	n, err = h.ctrl.Kill("app:com.nokia.calc")
	require.NoError(t, err)
	assert.Zero(t, n, "apps that cannot hibernate are not killed")

	_, err = h.ctrl.Kill("app:com.nokia.missing")
	assert.ErrorIs(t, err, window.ErrNotTracked)
}

func TestKillUnknownMode(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.ctrl.Kill("oldest")
	assert.ErrorIs(t, err, ErrUnknownKillMode)
	assert.Empty(t, h.sig.Sent)
}

func TestKillReportsSignalFailures(t *testing.T) {
	h := newHarness(t, false)
	h.sig.Err = syscall.EPERM

	n, err := h.ctrl.Kill("all")
	assert.Zero(t, n)
	assert.ErrorIs(t, err, syscall.EPERM)
}

func TestFlagsNotifyGlobalChange(t *testing.T) {
	h := newHarness(t, false)
	h.got = nil

	assert.True(t, h.ctrl.SetLowMemory(true))
	assert.False(t, h.ctrl.SetLowMemory(true))
	assert.True(t, h.ctrl.LowMemory())
	assert.True(t, h.ctrl.SetBackgroundKill(true))
	assert.True(t, h.ctrl.BackgroundKill())

	require.Len(t, h.got, 2)
	for _, n := range h.got {
		assert.Equal(t, window.Changed, n.Kind)
		assert.Nil(t, n.Entry)
	}
	assert.Empty(t, h.sig.Sent, "automatic background kill is off")
}

func TestAutoBackgroundKillSparesActiveWindow(t *testing.T) {
	h := newHarness(t, true)
	h.reg.SetActiveWindow(1)

	h.ctrl.SetBackgroundKill(true)
	assert.Equal(t, []int{103}, h.sig.PIDs(syscall.SIGTERM))

	// Only the off-to-on transition kills.
	h.ctrl.SetBackgroundKill(true)
	assert.Len(t, h.sig.Sent, 1)

	h.ctrl.SetBackgroundKill(false)
	assert.Len(t, h.sig.Sent, 1)
	assert.Equal(t, []string{"bgkill"}, h.metrics.modes)
}

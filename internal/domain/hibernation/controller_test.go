package hibernation

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform/fake"
)

type mockSignaler struct {
	mock.Mock
}

func (m *mockSignaler) Signal(pid int, sig syscall.Signal) error {
	return m.Called(pid, sig).Error(0)
}

func (m *mockSignaler) Alive(pid int) bool {
	return m.Called(pid).Bool(0)
}

type mockLauncher struct {
	mock.Mock
}

func (m *mockLauncher) Resume(service string, done func(error)) {
	m.Called(service, done)
}

type harness struct {
	reg      *window.Registry
	src      *fake.Source
	wm       *fake.WindowManager
	sched    *loop.Manual
	sig      *mockSignaler
	launcher *mockLauncher
	ctrl     *Controller
	got      []window.Notification
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		src:      fake.NewSource(),
		wm:       &fake.WindowManager{},
		sched:    loop.NewManual(),
		sig:      &mockSignaler{},
		launcher: &mockLauncher{},
	}
	cat := catalog.New(
		catalog.Descriptor{Class: "email", Name: "Email", Service: "com.nokia.email", CanHibernate: true},
		catalog.Descriptor{Class: "calc", Name: "Calculator"},
	)
	h.reg = window.NewRegistry(cat, h.src, zaptest.NewLogger(t))
	h.reg.Subscribe(func(n window.Notification) { h.got = append(h.got, n) })
	h.ctrl = New(h.reg, Options{
		WindowManager: h.wm,
		Signaler:      h.sig,
		Launcher:      h.launcher,
		Scheduler:     h.sched,
		Logger:        zaptest.NewLogger(t),
	})
	return h
}

func (h *harness) reconcile(t *testing.T) {
	t.Helper()
	ids, err := h.src.ClientList()
	require.NoError(t, err)
	h.reg.Reconcile(ids)
}

func (h *harness) count(kind window.NotificationKind) int {
	n := 0
	for _, got := range h.got {
		if got.Kind == kind {
			n++
		}
	}
	return n
}

// hibernated maps an email window and evicts it again.
func (h *harness) hibernated(t *testing.T, views ...uint32) *window.Window {
	t.Helper()
	h.src.Map(1, &fake.Window{Class: "email", Views: views, PID: 42})
	h.reconcile(t)
	w, ok := h.reg.Window(1)
	require.True(t, ok)
	h.src.Unmap(1)
	h.reconcile(t)
	require.True(t, w.Hibernating())
	return w
}

func TestTerminateEscalatesExactlyOnce(t *testing.T) {
	h := newHarness(t)
	h.src.Map(1, &fake.Window{Class: "email", PID: 42})
	h.reconcile(t)
	w, _ := h.reg.Window(1)

	h.sig.On("Signal", 42, syscall.SIGTERM).Return(nil).Once()
	h.sig.On("Alive", 42).Return(true)
	h.sig.On("Signal", 42, syscall.SIGKILL).Return(nil).Once()

	require.NoError(t, h.ctrl.Terminate(w))
	assert.True(t, h.ctrl.PendingKill(w))
	assert.ErrorIs(t, h.ctrl.Terminate(w), ErrKillPending)

	h.sched.Advance(2 * time.Second)
	h.sig.AssertNotCalled(t, "Signal", 42, syscall.SIGKILL)

	h.sched.Advance(time.Second)
	h.sched.Advance(time.Minute)

	h.sig.AssertExpectations(t)
	h.sig.AssertNumberOfCalls(t, "Signal", 2)
	assert.False(t, h.ctrl.PendingKill(w))
}

func TestTerminateWithoutEscalationWhenProcessExits(t *testing.T) {
	h := newHarness(t)
	h.src.Map(1, &fake.Window{Class: "email", PID: 42})
	h.reconcile(t)
	w, _ := h.reg.Window(1)

	h.sig.On("Signal", 42, syscall.SIGTERM).Return(nil).Once()
	h.sig.On("Alive", 42).Return(false).Once()

	require.NoError(t, h.ctrl.Terminate(w))
	h.src.Unmap(1)
	h.reconcile(t)
	require.True(t, w.Hibernating())
	assert.True(t, h.ctrl.PendingKill(w), "hibernation does not cancel the confirmation")

	h.sched.Advance(DefaultKillTimeout)

	h.sig.AssertExpectations(t)
	h.sig.AssertNotCalled(t, "Signal", 42, syscall.SIGKILL)
}

func TestTerminateCancelledWhenWindowReappears(t *testing.T) {
	h := newHarness(t)
	h.src.Map(1, &fake.Window{Class: "email", PID: 42})
	h.reconcile(t)
	w, _ := h.reg.Window(1)

	h.sig.On("Signal", 42, syscall.SIGTERM).Return(nil).Once()
	require.NoError(t, h.ctrl.Terminate(w))

	h.src.Unmap(1)
	h.reconcile(t)
	h.src.Map(2, &fake.Window{Class: "email", PID: 43})
	h.reconcile(t)
	require.False(t, w.Hibernating())

	assert.False(t, h.ctrl.PendingKill(w))
	assert.Zero(t, h.sched.Pending())
	h.sched.Advance(time.Minute)
	h.sig.AssertNotCalled(t, "Alive", mock.Anything)
}

func TestTerminateCancelledOnDestroy(t *testing.T) {
	h := newHarness(t)
	h.src.Map(1, &fake.Window{Class: "email", PID: 42})
	h.reconcile(t)
	w, _ := h.reg.Window(1)

	h.sig.On("Signal", 42, syscall.SIGTERM).Return(nil).Once()
	require.NoError(t, h.ctrl.Terminate(w))
	require.NoError(t, h.reg.Destroy(w))

	assert.Zero(t, h.sched.Pending())
}

func TestTerminateSignalFailureIsNotRetried(t *testing.T) {
	h := newHarness(t)
	h.src.Map(1, &fake.Window{Class: "email", PID: 42})
	h.reconcile(t)
	w, _ := h.reg.Window(1)

	h.sig.On("Signal", 42, syscall.SIGTERM).Return(syscall.EPERM).Once()

	err := h.ctrl.Terminate(w)
	assert.ErrorIs(t, err, syscall.EPERM)
	assert.Zero(t, h.sched.Pending())
	h.sig.AssertNumberOfCalls(t, "Signal", 1)
}

func TestTerminateWithoutPID(t *testing.T) {
	h := newHarness(t)
	h.src.Map(3, &fake.Window{Class: "email", Role: "compose"})
	h.reconcile(t)
	w, _ := h.reg.Window(3)

	assert.ErrorIs(t, h.ctrl.Terminate(w), ErrNoProcess)
	h.sig.AssertNotCalled(t, "Signal", mock.Anything, mock.Anything)

	hib := h.hibernated(t)
	assert.ErrorIs(t, h.ctrl.Terminate(hib), ErrNotLive)
}

func TestActivateLiveWindowAndView(t *testing.T) {
	h := newHarness(t)
	h.src.Map(1, &fake.Window{Class: "email", Views: []uint32{5, 6}})
	h.src.Map(2, &fake.Window{Class: "calc"})
	h.reconcile(t)
	email, _ := h.reg.Window(1)
	calc, _ := h.reg.Window(2)
	v6, _ := email.View(6)

	require.NoError(t, h.ctrl.Activate(v6.Entry()))
	last, _ := h.wm.Last()
	assert.Equal(t, fake.Request{Op: "activate", Window: 1, View: 6}, last)

	require.NoError(t, h.ctrl.Activate(h.reg.AppEntry(calc.App())))
	last, _ = h.wm.Last()
	assert.Equal(t, fake.Request{Op: "activate", Window: 2}, last)

	require.NoError(t, h.ctrl.Activate(h.reg.Desktop()))
	last, _ = h.wm.Last()
	assert.Equal(t, fake.Request{Op: "show-desktop", Show: true}, last)
}

func TestActivateHibernatingResumesApp(t *testing.T) {
	h := newHarness(t)
	w := h.hibernated(t, 5, 6)
	v6, _ := w.View(6)
	app := w.App()

	h.launcher.On("Resume", "com.nokia.email", mock.Anything).Return().Once()
	h.got = nil

	require.NoError(t, h.ctrl.Activate(v6.Entry()))
	assert.True(t, app.Launching())
	assert.Equal(t, 1, h.count(window.Changed))
	assert.Equal(t, 1, h.sched.Pending())

	// A second request while launching does not resume again.
	require.NoError(t, h.ctrl.Activate(h.reg.AppEntry(app)))
	h.launcher.AssertNumberOfCalls(t, "Resume", 1)

	h.src.Map(9, &fake.Window{Class: "email"})
	h.reconcile(t)

	assert.False(t, app.Launching())
	assert.Zero(t, h.sched.Pending(), "launch timeout is cancelled")
	last, _ := h.wm.Last()
	assert.Equal(t, fake.Request{Op: "activate", Window: 9, View: 6}, last)
	h.launcher.AssertExpectations(t)
}

func TestWakeFailureDestroysHibernatingWindows(t *testing.T) {
	h := newHarness(t)
	w := h.hibernated(t)
	app := w.App()

	h.launcher.On("Resume", "com.nokia.email", mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(func(error))(errors.New("service unknown"))
		}).
		Return().Once()
	h.got = nil

	require.NoError(t, h.ctrl.Activate(h.reg.AppEntry(app)))

	assert.Zero(t, h.reg.HibernatingCount())
	assert.False(t, app.Launching())
	assert.Zero(t, h.sched.Pending())
	require.Equal(t, 1, h.count(window.Removed))
	assert.True(t, h.got[len(h.got)-1].WholeApp)
}

func TestLaunchTimeoutClearsLaunching(t *testing.T) {
	h := newHarness(t)
	w := h.hibernated(t)
	app := w.App()
	h.launcher.On("Resume", "com.nokia.email", mock.Anything).Return()

	require.NoError(t, h.ctrl.Activate(h.reg.AppEntry(app)))
	h.got = nil
	h.sched.Advance(DefaultLaunchTimeout)

	assert.False(t, app.Launching())
	assert.True(t, w.Hibernating(), "a timeout keeps the hibernating window")
	assert.Equal(t, 1, h.count(window.Changed))

	require.NoError(t, h.ctrl.Activate(h.reg.AppEntry(app)))
	h.launcher.AssertNumberOfCalls(t, "Resume", 2)
}

func TestActivateWithoutServiceFails(t *testing.T) {
	h := newHarness(t)
	h.src.Map(1, &fake.Window{Class: "calc", Killable: true})
	h.reconcile(t)
	w, _ := h.reg.Window(1)
	h.src.Unmap(1)
	h.reconcile(t)
	require.True(t, w.Hibernating())

	assert.ErrorIs(t, h.ctrl.Activate(h.reg.AppEntry(w.App())), ErrNoService)
	h.launcher.AssertNotCalled(t, "Resume", mock.Anything, mock.Anything)
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	hib := h.hibernated(t)
	h.src.Map(2, &fake.Window{Class: "email", Role: "compose"})
	h.reconcile(t)
	live, _ := h.reg.Window(2)

	h.got = nil
	require.NoError(t, h.ctrl.Close(h.reg.AppEntry(live.App())))

	assert.Nil(t, hib.App(), "hibernating window is dropped at once")
	last, _ := h.wm.Last()
	assert.Equal(t, fake.Request{Op: "close", Window: 2}, last)
	assert.Equal(t, 1, h.count(window.Removed))

	h.wm.Err = errors.New("bad window")
	assert.Error(t, h.ctrl.Close(h.reg.WindowEntry(live)))
}

func TestProcessDiedWhileLaunching(t *testing.T) {
	h := newHarness(t)
	w := h.hibernated(t)
	h.launcher.On("Resume", "com.nokia.email", mock.Anything).Return()
	require.NoError(t, h.ctrl.Activate(h.reg.AppEntry(w.App())))

	h.ctrl.ProcessDied("com.nokia.email")

	assert.Zero(t, h.reg.HibernatingCount())
	assert.Zero(t, h.sched.Pending())
}

func TestProcessDiedCancelsKillTimer(t *testing.T) {
	h := newHarness(t)
	h.src.Map(1, &fake.Window{Class: "email", PID: 42})
	h.reconcile(t)
	w, _ := h.reg.Window(1)
	h.sig.On("Signal", 42, syscall.SIGTERM).Return(nil).Once()
	require.NoError(t, h.ctrl.Terminate(w))

	h.ctrl.ProcessDied("com.nokia.email")

	assert.False(t, h.ctrl.PendingKill(w))
	assert.Equal(t, platform.WindowID(1), w.ID(), "a live window is left alone")
}

func TestActivateWithoutLauncherIsWakeFailure(t *testing.T) {
	h := newHarness(t)
	h.ctrl = New(h.reg, Options{
		WindowManager: h.wm,
		Signaler:      h.sig,
		Scheduler:     h.sched,
		Logger:        zaptest.NewLogger(t),
	})
	w := h.hibernated(t)
	app := w.App()

	require.NoError(t, h.ctrl.Activate(h.reg.WindowEntry(w)))

	assert.Zero(t, h.reg.HibernatingCount())
	assert.False(t, app.Launching())
	assert.Zero(t, h.sched.Pending(), "the launch timer is cancelled")
}

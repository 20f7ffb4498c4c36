package dbus

import (
	"context"
	"errors"
	"testing"

	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/bus"
)

const service = "com.nokia.tasknav"

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		sig  *godbus.Signal
		want bus.Signal
		ok   bool
	}{
		{
			name: "low memory on",
			sig:  &godbus.Signal{Name: "com.nokia.ke_recv.lowmem_on"},
			want: bus.Signal{Kind: bus.LowMemoryOn},
			ok:   true,
		},
		{
			name: "low memory off",
			sig:  &godbus.Signal{Name: "com.nokia.ke_recv.lowmem_off"},
			want: bus.Signal{Kind: bus.LowMemoryOff},
			ok:   true,
		},
		{
			name: "background kill on",
			sig:  &godbus.Signal{Name: "com.nokia.ke_recv.bgkill_on"},
			want: bus.Signal{Kind: bus.BackgroundKillOn},
			ok:   true,
		},
		{
			name: "background kill off",
			sig:  &godbus.Signal{Name: "com.nokia.ke_recv.bgkill_off"},
			want: bus.Signal{Kind: bus.BackgroundKillOff},
			ok:   true,
		},
		{
			name: "shutdown",
			sig:  &godbus.Signal{Name: "com.nokia.mce.signal.shutdown_ind"},
			want: bus.Signal{Kind: bus.Shutdown},
			ok:   true,
		},
		{
			name: "home short",
			sig:  &godbus.Signal{Name: service + ".home_short"},
			want: bus.Signal{Kind: bus.HomeShort},
			ok:   true,
		},
		{
			name: "home long",
			sig:  &godbus.Signal{Name: service + ".home_long"},
			want: bus.Signal{Kind: bus.HomeLong},
			ok:   true,
		},
		{
			name: "service lost its owner",
			sig: &godbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []interface{}{"com.nokia.email", ":1.42", ""},
			},
			want: bus.Signal{Kind: bus.ProcessDied, Service: "com.nokia.email"},
			ok:   true,
		},
		{
			name: "service gained an owner",
			sig: &godbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []interface{}{"com.nokia.email", "", ":1.43"},
			},
		},
		{
			name: "unique name",
			sig: &godbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []interface{}{":1.42", ":1.42", ""},
			},
		},
		{
			name: "short body",
			sig: &godbus.Signal{
				Name: "org.freedesktop.DBus.NameOwnerChanged",
				Body: []interface{}{"com.nokia.email"},
			},
		},
		{
			name: "home key on another service",
			sig:  &godbus.Signal{Name: "com.example.other.home_short"},
		},
		{
			name: "unknown member",
			sig:  &godbus.Signal{Name: "com.nokia.ke_recv.battery_low"},
		},
		{
			name: "no interface",
			sig:  &godbus.Signal{Name: "lowmem_on"},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Translate(service, tt.sig)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServicePath(t *testing.T) {
	assert.Equal(t, godbus.ObjectPath("/com/nokia/email"), ServicePath("com.nokia.email"))
	assert.True(t, ServicePath("com.nokia.tasknav").IsValid())
}

type stubKiller struct {
	n   int
	err error
	got string
}

func (s *stubKiller) Kill(_ context.Context, mode string) (int, error) {
	s.got = mode
	return s.n, s.err
}

func TestExportedKill(t *testing.T) {
	k := &stubKiller{n: 2}
	e := &exported{killer: k, log: zaptest.NewLogger(t)}

	n, derr := e.Kill("all")
	assert.Nil(t, derr)
	assert.Equal(t, int32(2), n)
	assert.Equal(t, "all", k.got)

	k.err = errors.New("unknown kill mode")
	k.n = 0
	n, derr = e.Kill("oldest")
	if assert.NotNil(t, derr) {
		assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)
	}
	assert.Zero(t, n)
}

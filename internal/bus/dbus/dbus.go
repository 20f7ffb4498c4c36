package dbus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	godbus "github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/bus"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/logging"
)

// Well-known signal sources.
const (
	lowMemInterface = "com.nokia.ke_recv"
	mceInterface    = "com.nokia.mce.signal"
	dbusInterface   = "org.freedesktop.DBus"

	memberLowMemOn    = "lowmem_on"
	memberLowMemOff   = "lowmem_off"
	memberBgKillOn    = "bgkill_on"
	memberBgKillOff   = "bgkill_off"
	memberShutdown    = "shutdown_ind"
	memberHomeShort   = "home_short"
	memberHomeLong    = "home_long"
	memberNameChanged = "NameOwnerChanged"

	topApplication = "top_application"
)

// Killer serves the exported kill method.
type Killer interface {
	Kill(ctx context.Context, mode string) (int, error)
}

// Client connects the tracker to the D-Bus session and system buses.
type Client struct {
	service string
	log     *zap.Logger

	session *godbus.Conn
	system  *godbus.Conn

	signals chan bus.Signal
	done    chan struct{}
	once    sync.Once
}

// Connect opens the session bus and, when available, the system bus, and
// subscribes to every signal the tracker consumes. A missing system bus only
// disables the low-memory and shutdown signals.
func Connect(service string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	session, err := godbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect session bus: %w", err)
	}

	c := &Client{
		service: service,
		log:     log.Named("dbus"),
		session: session,
		signals: make(chan bus.Signal, 64),
		done:    make(chan struct{}),
	}

	if err := c.subscribe(session,
		[]godbus.MatchOption{godbus.WithMatchInterface(service)},
		[]godbus.MatchOption{godbus.WithMatchInterface(dbusInterface), godbus.WithMatchMember(memberNameChanged)},
	); err != nil {
		session.Close()
		return nil, err
	}

	system, err := godbus.ConnectSystemBus()
	if err != nil {
		c.log.Warn("system bus unavailable, memory pressure signals disabled", zap.Error(err))
	} else {
		c.system = system
		if err := c.subscribe(system,
			[]godbus.MatchOption{godbus.WithMatchInterface(lowMemInterface)},
			[]godbus.MatchOption{godbus.WithMatchInterface(mceInterface), godbus.WithMatchMember(memberShutdown)},
		); err != nil {
			c.log.Warn("failed to subscribe to system signals", zap.Error(err))
		}
	}

	return c, nil
}

// subscribe adds signal matches on conn and starts translating what arrives.
// Each connection gets its own channel; a connection closes it on shutdown.
func (c *Client) subscribe(conn *godbus.Conn, matches ...[]godbus.MatchOption) error {
	for _, m := range matches {
		if err := conn.AddMatchSignal(m...); err != nil {
			return fmt.Errorf("failed to add signal match: %w", err)
		}
	}
	raw := make(chan *godbus.Signal, 64)
	conn.Signal(raw)
	go c.pump(raw)
	return nil
}

func (c *Client) pump(raw <-chan *godbus.Signal) {
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-raw:
			if !ok {
				return
			}
			sig, ok := Translate(c.service, msg)
			if !ok {
				continue
			}
			select {
			case c.signals <- sig:
			case <-c.done:
				return
			}
		}
	}
}

// Translate maps a raw D-Bus signal onto a tracker signal.
func Translate(service string, raw *godbus.Signal) (bus.Signal, bool) {
	if raw == nil {
		return bus.Signal{}, false
	}
	iface, member := splitName(raw.Name)

	switch iface {
	case dbusInterface:
		if member != memberNameChanged || len(raw.Body) != 3 {
			return bus.Signal{}, false
		}
		name, _ := raw.Body[0].(string)
		newOwner, _ := raw.Body[2].(string)
		// Unique names (":1.42") are connections, not services.
		if name == "" || strings.HasPrefix(name, ":") || newOwner != "" {
			return bus.Signal{}, false
		}
		return bus.Signal{Kind: bus.ProcessDied, Service: name}, true

	case lowMemInterface:
		switch member {
		case memberLowMemOn:
			return bus.Signal{Kind: bus.LowMemoryOn}, true
		case memberLowMemOff:
			return bus.Signal{Kind: bus.LowMemoryOff}, true
		case memberBgKillOn:
			return bus.Signal{Kind: bus.BackgroundKillOn}, true
		case memberBgKillOff:
			return bus.Signal{Kind: bus.BackgroundKillOff}, true
		}

	case mceInterface:
		if member == memberShutdown {
			return bus.Signal{Kind: bus.Shutdown}, true
		}

	case service:
		switch member {
		case memberHomeShort:
			return bus.Signal{Kind: bus.HomeShort}, true
		case memberHomeLong:
			return bus.Signal{Kind: bus.HomeLong}, true
		}
	}
	return bus.Signal{}, false
}

func splitName(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// ServicePath derives the object path of a launch service.
func ServicePath(service string) godbus.ObjectPath {
	return godbus.ObjectPath("/" + strings.ReplaceAll(service, ".", "/"))
}

// Signals implements bus.Source.
func (c *Client) Signals() <-chan bus.Signal {
	return c.signals
}

// Resume asks a launch service to bring its application to the top. The
// service is started by the bus if it is not running. done runs on a bus
// goroutine.
func (c *Client) Resume(service string, done func(error)) {
	obj := c.session.Object(service, ServicePath(service))
	call := obj.Go(service+"."+topApplication, 0, make(chan *godbus.Call, 1))

	go func() {
		select {
		case <-call.Done:
			if call.Err != nil {
				done(fmt.Errorf("failed to resume %s: %w", service, call.Err))
				return
			}
			done(nil)
		case <-c.done:
			done(fmt.Errorf("bus closed while resuming %s", service))
		}
	}()
}

// Export publishes the kill method under the configured service name.
func (c *Client) Export(k Killer) error {
	path := ServicePath(c.service)
	obj := &exported{killer: k, log: c.log}

	if err := c.session.Export(obj, path, c.service); err != nil {
		return fmt.Errorf("failed to export %s: %w", c.service, err)
	}
	node := &introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    c.service,
				Methods: introspect.Methods(obj),
			},
		},
	}
	if err := c.session.Export(introspect.NewIntrospectable(node), path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := c.session.RequestName(c.service, godbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name %s: %w", c.service, err)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", c.service)
	}
	c.log.Info("exported service", logging.Service(c.service), zap.String("path", string(path)))
	return nil
}

type exported struct {
	killer Killer
	log    *zap.Logger
}

// Kill is the exported com.nokia.tasknav.Kill method.
func (e *exported) Kill(mode string) (int32, *godbus.Error) {
	n, err := e.killer.Kill(context.Background(), mode)
	if err != nil {
		e.log.Warn("kill request failed", zap.String("mode", mode), zap.Error(err))
		return int32(n), godbus.MakeFailedError(err)
	}
	return int32(n), nil
}

// Close implements bus.Source.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		if c.system != nil {
			c.system.Close()
		}
		err = c.session.Close()
	})
	return err
}

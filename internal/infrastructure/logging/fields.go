package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Window logs an X window id in the hexadecimal form xprop and xwininfo print.
func Window[T ~uint32](id T) zap.Field {
	return zap.String("window", fmt.Sprintf("0x%x", uint32(id)))
}

// PID logs a process id.
func PID(pid int) zap.Field {
	return zap.Int("pid", pid)
}

// Service logs a launch service name.
func Service(name string) zap.Field {
	return zap.String("service", name)
}

package server

import (
	"errors"
	"net"
	"strconv"
	"syscall"

	apperrors "github.com/kbukum/testserver/errors"
)

// PortRange is the number of consecutive ports FindPort tries.
const PortRange = 100

const maxPort = 65535

// FindPort returns the first port in [start, start+PortRange) that can be
// bound on host. Each candidate is bound and released at once, so another
// process may still take the port before the caller binds it.
//
// A port in use is skipped. Any other bind failure is returned as a
// BIND_FAILED error. If every candidate is in use the error is
// NO_AVAILABLE_PORT.
func FindPort(host string, start int) (int, error) {
	if start < 1 || start > maxPort {
		return 0, apperrors.Validation("start port must be between 1 and 65535").
			WithDetail("start_port", start)
	}

	end := start + PortRange
	if end > maxPort+1 {
		end = maxPort + 1
	}

	for port := start; port < end; port++ {
		ok, err := portAvailable(host, port)
		if err != nil {
			return 0, err
		}
		if ok {
			return port, nil
		}
	}
	return 0, apperrors.NoAvailablePort(host, start, end)
}

func portAvailable(host string, port int) (bool, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return false, nil
		}
		return false, apperrors.BindFailed(addr, err)
	}
	_ = ln.Close()
	return true, nil
}

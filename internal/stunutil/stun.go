package stunutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pion/stun/v3"

	"latencygen/internal/addrutil"
)

// DefaultPort is used for servers given without a port.
const DefaultPort = 3478

const maxMessageSize = 1500

// Result is the public address one STUN server reported for this host.
type Result struct {
	Server string // server that answered, host:port
	Addr   string // mapped host:port
	Host   string // host part of Addr
}

// Discover asks each server in turn for this host's mapped address and
// returns the first answer. Every server gets at most timeout.
func Discover(ctx context.Context, servers []string, timeout time.Duration) (Result, error) {
	if len(servers) == 0 {
		return Result{}, fmt.Errorf("no STUN servers provided")
	}

	var errs []error
	for _, server := range servers {
		addr, err := serverAddr(server)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mapped, err := bind(ctx, addr, timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return Result{Server: addr, Addr: mapped, Host: addrutil.Host(mapped)}, nil
	}
	return Result{}, errors.Join(errs...)
}

// serverAddr accepts "host", "host:port" and "stun:host[:port]".
func serverAddr(server string) (string, error) {
	s := strings.TrimPrefix(strings.TrimSpace(server), "stun:")
	if s == "" {
		return "", fmt.Errorf("empty STUN server")
	}
	if _, _, err := net.SplitHostPort(s); err == nil {
		return s, nil
	}
	return net.JoinHostPort(strings.Trim(s, "[]"), strconv.Itoa(DefaultPort)), nil
}

// bind performs one Binding request over UDP and returns the mapped address.
func bind(ctx context.Context, addr string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	req := stun.MustBuild(stun.TransactionID, stun.BindingRequest, stun.Fingerprint)
	if _, err := conn.Write(req.Raw); err != nil {
		return "", err
	}

	buf := make([]byte, maxMessageSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}
		if !stun.IsMessage(buf[:n]) {
			continue
		}
		res := &stun.Message{Raw: append([]byte(nil), buf[:n]...)}
		if err := res.Decode(); err != nil || res.TransactionID != req.TransactionID {
			continue
		}
		return mappedAddress(res)
	}
}

func mappedAddress(res *stun.Message) (string, error) {
	if res.Type != stun.BindingSuccess {
		return "", fmt.Errorf("unexpected STUN response %s", res.Type)
	}
	var xor stun.XORMappedAddress
	if err := xor.GetFrom(res); err == nil {
		return xor.String(), nil
	}
	var plain stun.MappedAddress
	if err := plain.GetFrom(res); err != nil {
		return "", fmt.Errorf("response carries no mapped address: %w", err)
	}
	return plain.String(), nil
}

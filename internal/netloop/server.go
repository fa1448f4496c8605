// Package netloop is the single-threaded, non-blocking connection engine:
// one goroutine, driven by readiness notifications from poll(2), services
// every accepted connection without spawning a goroutine per connection
// and without any locking in the keyspace it serves.
package netloop

import (
	"context"
	"errors"
	"log"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"zdb"
	"zdb/internal/command"
	"zdb/internal/config"
	"zdb/internal/wire"
)

var errUnexpectedSockaddr = errors.New("unexpected socket address type")

// Server owns the listening socket, the dense fd-indexed peer table, and
// the keyspace every connection's commands are dispatched against.
type Server struct {
	cfg config.ServerConfig
	ks  *zdb.Keyspace

	listenFD     int
	wakeR, wakeW int

	peers []*peer

	cancel context.CancelFunc
}

// New creates and binds the listening socket but does not start serving;
// call Run to enter the event loop.
func New(cfg config.ServerConfig, ks *zdb.Keyspace) (*Server, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, err
	}

	sa, err := resolveAddr(cfg.ListenAddr)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, err
	}

	var pipeFDs [2]int
	if err := unix.Pipe2(pipeFDs[:], unix.O_NONBLOCK); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		ks:       ks,
		listenFD: fd,
		wakeR:    pipeFDs[0],
		wakeW:    pipeFDs[1],
		peers:    make([]*peer, cfg.MaxConns),
	}, nil
}

// Addr returns the address the listening socket is actually bound to,
// which matters when ServerConfig.ListenAddr asks for an OS-assigned
// ephemeral port (":0").
func (s *Server) Addr() (string, error) {
	sa, err := unix.Getsockname(s.listenFD)
	if err != nil {
		return "", err
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return "", errUnexpectedSockaddr
	}
	return net.JoinHostPort(net.IP(sa4.Addr[:]).String(), strconv.Itoa(sa4.Port)), nil
}

func resolveAddr(addr string) (*unix.SockaddrInet4, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	var ip net.IP
	if host == "" {
		ip = net.IPv4zero
	} else {
		ip = net.ParseIP(host)
		if ip == nil {
			return nil, &net.AddrError{Err: "invalid listen host", Addr: host}
		}
	}
	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip.To4())
	return sa, nil
}

// Run enters the readiness loop, servicing connections until it observes
// that ctx is canceled. The poll wait has no timeout, so ctx is only
// checked after some descriptor becomes ready; Shutdown cancels and also
// wakes the poll so Run returns promptly. It always owns the calling
// goroutine until it returns.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	for {
		pollFDs := s.buildPollSet()
		_, err := unix.Poll(pollFDs, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}

		if pollFDs[0].Revents != 0 {
			s.acceptOne()
		}
		if pollFDs[1].Revents != 0 {
			var drain [64]byte
			unix.Read(s.wakeR, drain[:])
		}

		for _, pfd := range pollFDs[2:] {
			if pfd.Revents == 0 {
				continue
			}
			p := s.peers[pfd.Fd]
			if p == nil {
				continue
			}
			if pfd.Revents&unix.POLLIN != 0 {
				s.handleRead(p)
			}
			if p.state == stateWriting && pfd.Revents&unix.POLLOUT != 0 {
				s.handleWrite(p)
			}
			if pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
				p.state = stateClosing
			}
			if p.state == stateClosing {
				s.closePeer(p)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// Shutdown asks Run to return. Safe to call from another goroutine.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	unix.Write(s.wakeW, []byte{0})
}

func (s *Server) buildPollSet() []unix.PollFd {
	fds := make([]unix.PollFd, 0, 2+len(s.peers))
	fds = append(fds, unix.PollFd{Fd: int32(s.listenFD), Events: unix.POLLIN})
	fds = append(fds, unix.PollFd{Fd: int32(s.wakeR), Events: unix.POLLIN})
	for _, p := range s.peers {
		if p == nil {
			continue
		}
		var ev int16 = unix.POLLERR
		switch p.state {
		case stateReading:
			ev |= unix.POLLIN
		case stateWriting:
			ev |= unix.POLLOUT
		}
		fds = append(fds, unix.PollFd{Fd: int32(p.fd), Events: ev})
	}
	return fds
}

func (s *Server) acceptOne() {
	nfd, _, err := unix.Accept(s.listenFD)
	if err != nil {
		if err != unix.EAGAIN {
			log.Printf("accept: %v", err)
		}
		return
	}
	if nfd >= len(s.peers) {
		unix.Close(nfd)
		return
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return
	}
	s.peers[nfd] = newPeer(nfd)
}

func (s *Server) closePeer(p *peer) {
	unix.Close(p.fd)
	s.peers[p.fd] = nil
}

func (s *Server) handleRead(p *peer) {
	p.growIn()
	n, err := unix.Read(p.fd, p.in[p.inUsed:])
	if err != nil {
		if err != unix.EAGAIN {
			p.state = stateClosing
		}
		return
	}
	if n == 0 {
		p.state = stateClosing
		return
	}
	p.inUsed += n

	for {
		args, consumed, ok, ferr := wire.ParseRequest(p.in[:p.inUsed], uint32(s.cfg.MaxMsg), uint32(s.cfg.MaxArgs))
		if ferr != nil {
			p.state = stateClosing
			return
		}
		if !ok {
			break
		}
		resp := command.Dispatch(s.ks, args)
		p.appendOut(wire.EncodeResponse(resp))
		p.consumeIn(consumed)
	}

	if p.outUsed > 0 {
		p.state = stateWriting
		s.handleWrite(p)
	}
}

func (s *Server) handleWrite(p *peer) {
	n, err := unix.Write(p.fd, p.out[:p.outUsed])
	if err != nil {
		if err != unix.EAGAIN {
			p.state = stateClosing
		}
		return
	}
	p.consumeOut(n)
	if p.outUsed == 0 {
		p.state = stateReading
	}
}

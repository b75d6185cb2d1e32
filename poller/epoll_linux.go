//go:build linux

// SPDX-License-Identifier: GPL-3.0-or-later

package poller

import (
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// epollPoller is the Linux backend, grounded directly on epoll_create1(2),
// epoll_ctl(2), and epoll_wait(2). Edge-triggered (EPOLLET) registration
// matches the level-of-service the socket package above expects: a
// registration fires once per transition to ready, and callers drain until
// EAGAIN before the next edge arrives.
//
// Shutdown uses an eventfd the same way a self-pipe would: it is registered
// like any other fd and a single 64-bit write wakes epoll_wait out of an
// indefinite timeout.
type epollPoller struct {
	epfd   int
	wakeFd int
	reg    *registry
	stopCh chan struct{}
	doneCh chan struct{}
}

// New returns the epoll-backed [Poller].
func New() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("poller: epoll_create1: %w", err)
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("poller: eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &ev); err != nil {
		_ = unix.Close(wakeFd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("poller: epoll_ctl(wakeFd): %w", err)
	}
	return &epollPoller{
		epfd:   epfd,
		wakeFd: wakeFd,
		reg:    newRegistry(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

var _ Poller = &epollPoller{}

func toEpollEvents(mask EventMask) uint32 {
	var events uint32
	if mask.Has(Read) {
		events |= unix.EPOLLIN
	}
	if mask.Has(Write) {
		events |= unix.EPOLLOUT
	}
	return events | unix.EPOLLET
}

func fromEpollEvents(events uint32) EventMask {
	var mask EventMask
	if events&unix.EPOLLIN != 0 {
		mask |= Read
	}
	if events&unix.EPOLLOUT != 0 {
		mask |= Write
	}
	if events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		mask |= Error
	}
	return mask
}

// Add implements [Poller].
func (p *epollPoller) Add(conn net.Conn, mask EventMask, cb Callback) error {
	fd, err := rawFD(conn)
	if err != nil {
		return err
	}
	op := unix.EPOLL_CTL_ADD
	if _, exists := p.reg.existingFD(conn); exists {
		op = unix.EPOLL_CTL_MOD
	}
	p.reg.set(conn, fd, mask, cb)
	ev := unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("poller: epoll_ctl: %w", err)
	}
	return nil
}

// Remove implements [Poller].
func (p *epollPoller) Remove(conn net.Conn) error {
	fd, ok := p.reg.deleteByConn(conn)
	if !ok {
		return nil
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil && err != unix.ENOENT {
		return fmt.Errorf("poller: epoll_ctl(del): %w", err)
	}
	return nil
}

// Start implements [Poller].
func (p *epollPoller) Start() error {
	go p.loop()
	return nil
}

// Stop implements [Poller].
func (p *epollPoller) Stop() error {
	close(p.stopCh)
	p.wake()
	<-p.doneCh
	_ = unix.Close(p.wakeFd)
	return unix.Close(p.epfd)
}

func (p *epollPoller) wake() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(p.wakeFd, buf[:])
}

func (p *epollPoller) loop() {
	defer close(p.doneCh)
	events := make([]unix.EpollEvent, 128)
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}
		n, err := unix.EpollWait(p.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			if int(ev.Fd) == p.wakeFd {
				var buf [8]byte
				_, _ = unix.Read(p.wakeFd, buf[:])
				continue
			}
			reg, ok := p.reg.lookup(int(ev.Fd))
			if !ok {
				continue
			}
			reg.cb(fromEpollEvents(ev.Events))
		}
	}
}

//go:build darwin || freebsd || netbsd || openbsd

// SPDX-License-Identifier: GPL-3.0-or-later

package poller

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// kqueuePoller is the darwin/BSD backend, grounded directly on kqueue(2) and
// kevent(2). Read and write interest are independent filters in kqueue (two
// EVFILT_READ/EVFILT_WRITE changes per registration), unlike epoll's single
// combined event mask.
//
// Shutdown uses a pipe the same way epoll_linux.go uses an eventfd: the read
// end is registered like any other descriptor and a single byte written to
// the write end wakes kevent() out of an indefinite wait.
type kqueuePoller struct {
	kq     int
	wakeR  *os.File
	wakeW  *os.File
	reg    *registry
	stopCh chan struct{}
	doneCh chan struct{}
}

// New returns the kqueue-backed [Poller].
func New() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("poller: kqueue: %w", err)
	}
	r, w, err := os.Pipe()
	if err != nil {
		_ = unix.Close(kq)
		return nil, fmt.Errorf("poller: pipe: %w", err)
	}
	wakeFD := int(r.Fd())
	changes := []unix.Kevent_t{{
		Ident:  uint64(wakeFD),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}}
	if _, err := unix.Kevent(kq, changes, nil, nil); err != nil {
		_ = r.Close()
		_ = w.Close()
		_ = unix.Close(kq)
		return nil, fmt.Errorf("poller: kevent(wake): %w", err)
	}
	return &kqueuePoller{
		kq:     kq,
		wakeR:  r,
		wakeW:  w,
		reg:    newRegistry(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

var _ Poller = &kqueuePoller{}

func kqueueChanges(fd int, mask EventMask, flags uint16) []unix.Kevent_t {
	var changes []unix.Kevent_t
	if mask.Has(Read) {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if mask.Has(Write) {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return changes
}

// Add implements [Poller].
func (p *kqueuePoller) Add(conn net.Conn, mask EventMask, cb Callback) error {
	fd, err := rawFD(conn)
	if err != nil {
		return err
	}
	if _, exists := p.reg.lookup(fd); exists {
		// Drop both filters before re-adding so that an interest bit left out
		// of the new mask stops firing; a filter never added reports ENOENT.
		for _, ch := range kqueueChanges(fd, Read|Write, unix.EV_DELETE) {
			_, _ = unix.Kevent(p.kq, []unix.Kevent_t{ch}, nil, nil)
		}
	}
	p.reg.set(conn, fd, mask, cb)
	changes := kqueueChanges(fd, mask, unix.EV_ADD|unix.EV_CLEAR)
	if len(changes) == 0 {
		return nil
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		return fmt.Errorf("poller: kevent(add): %w", err)
	}
	return nil
}

// Remove implements [Poller].
func (p *kqueuePoller) Remove(conn net.Conn) error {
	fd, ok := p.reg.deleteByConn(conn)
	if !ok {
		return nil
	}
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}
	// A filter that was never added reports ENOENT; a registration only
	// ever installs one or both of these two, so tolerate either missing.
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil && err != unix.ENOENT {
		return fmt.Errorf("poller: kevent(del): %w", err)
	}
	return nil
}

// Start implements [Poller].
func (p *kqueuePoller) Start() error {
	go p.loop()
	return nil
}

// Stop implements [Poller].
func (p *kqueuePoller) Stop() error {
	close(p.stopCh)
	_, _ = p.wakeW.Write([]byte{0})
	<-p.doneCh
	_ = p.wakeR.Close()
	_ = p.wakeW.Close()
	return unix.Close(p.kq)
}

func (p *kqueuePoller) loop() {
	defer close(p.doneCh)
	events := make([]unix.Kevent_t, 128)
	wakeFD := int(p.wakeR.Fd())
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}
		n, err := unix.Kevent(p.kq, nil, events, nil)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Ident)
			if fd == wakeFD {
				buf := make([]byte, 64)
				_, _ = unix.Read(wakeFD, buf)
				continue
			}
			reg, ok := p.reg.lookup(fd)
			if !ok {
				continue
			}
			var ready EventMask
			switch ev.Filter {
			case unix.EVFILT_READ:
				ready = Read
			case unix.EVFILT_WRITE:
				ready = Write
			}
			if ev.Flags&unix.EV_EOF != 0 || ev.Flags&unix.EV_ERROR != 0 {
				ready |= Error
			}
			reg.cb(ready)
		}
	}
}

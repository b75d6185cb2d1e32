// SPDX-License-Identifier: GPL-3.0-or-later

package poller

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// tcpPipe returns a connected pair of real TCP sockets backed by actual file
// descriptors, so every backend's rawFD/SyscallConn extraction exercises a
// real kernel object instead of an in-memory net.Pipe (which does not
// implement syscall.Conn).
func tcpPipe(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptCh := make(chan net.Conn, 1)
	acceptErrCh := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			acceptErrCh <- err
			return
		}
		acceptCh <- conn
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	select {
	case server = <-acceptCh:
	case err := <-acceptErrCh:
		t.Fatalf("accept: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for accept")
	}
	return client, server
}

func TestPollerReadReady(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	client, server := tcpPipe(t)
	defer client.Close()
	defer server.Close()

	readyCh := make(chan EventMask, 8)
	require.NoError(t, p.Add(server, Read, func(ready EventMask) {
		readyCh <- ready
	}))

	_, err = client.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case ready := <-readyCh:
		require.True(t, ready.Has(Read))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for read readiness")
	}
}

func TestPollerWriteReady(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	client, server := tcpPipe(t)
	defer client.Close()
	defer server.Close()

	readyCh := make(chan EventMask, 8)
	require.NoError(t, p.Add(client, Write, func(ready EventMask) {
		readyCh <- ready
	}))

	select {
	case ready := <-readyCh:
		require.True(t, ready.Has(Write))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for write readiness")
	}
}

func TestPollerRemoveStopsCallbacks(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	client, server := tcpPipe(t)
	defer client.Close()
	defer server.Close()

	readyCh := make(chan EventMask, 8)
	require.NoError(t, p.Add(server, Read, func(ready EventMask) {
		readyCh <- ready
	}))

	_, err = client.Write([]byte("first"))
	require.NoError(t, err)
	select {
	case <-readyCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for initial read readiness")
	}

	require.NoError(t, p.Remove(server))

	// Drain any event already in flight before the Remove took effect, then
	// assert no further callback arrives for new data.
	for drained := false; !drained; {
		select {
		case <-readyCh:
		default:
			drained = true
		}
	}

	_, err = client.Write([]byte("second"))
	require.NoError(t, err)

	select {
	case ready := <-readyCh:
		t.Fatalf("unexpected callback after Remove: %v", ready)
	case <-time.After(200 * time.Millisecond):
		// Expected: no callback after removal.
	}
}

func TestPollerAddUpdatesExistingRegistration(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	client, server := tcpPipe(t)
	defer client.Close()
	defer server.Close()

	firstCh := make(chan EventMask, 8)
	require.NoError(t, p.Add(server, Read, func(ready EventMask) {
		firstCh <- ready
	}))

	secondCh := make(chan EventMask, 8)
	require.NoError(t, p.Add(server, Read, func(ready EventMask) {
		secondCh <- ready
	}))

	_, err = client.Write([]byte("data"))
	require.NoError(t, err)

	select {
	case ready := <-secondCh:
		require.True(t, ready.Has(Read))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for updated callback")
	}

	select {
	case ready := <-firstCh:
		t.Fatalf("stale callback invoked after re-Add: %v", ready)
	default:
	}
}

func TestPollerRemoveUnknownConnIsNoop(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	client, server := tcpPipe(t)
	defer client.Close()
	defer server.Close()

	require.NoError(t, p.Remove(server))
}

func TestEventMaskHas(t *testing.T) {
	m := Read | Write
	require.True(t, m.Has(Read))
	require.True(t, m.Has(Write))
	require.False(t, m.Has(Error))
	require.True(t, (Read | Error).Has(Error))
}

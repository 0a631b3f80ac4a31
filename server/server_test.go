package wl_test

import (
	"bytes"
	"image"
	"net"
	"os"
	"testing"
	"time"

	"deedles.dev/wlkde/internal/bin"
	"deedles.dev/wlkde/internal/wltest"
	wl "deedles.dev/wlkde/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const (
	opSurfaceDestroy        = 0
	opSurfaceAttach         = 1
	opSurfaceDamage         = 2
	opSurfaceFrame          = 3
	opSurfaceSetInputRegion = 5
	opSurfaceCommit         = 6
	opSurfaceSetTransform   = 7
	opSurfaceSetScale       = 8
	opSurfaceDamageBuffer   = 9
	opSurfaceOffset         = 10
	opRegionSubtract        = 2
	opDisplaySync           = 0

	evRegistryGlobal       = 0
	evRegistryGlobalRemove = 1
	evCallbackDone         = 0
)

type compositor struct {
	surfaces []*wl.Surface
	regions  []*wl.Region
	commits  int
}

func (c *compositor) CreateSurface(s *wl.Surface) {
	c.surfaces = append(c.surfaces, s)
	s.Listener = c
}

func (c *compositor) CreateRegion(r *wl.Region) {
	c.regions = append(c.regions, r)
}

func (c *compositor) Commit(*wl.Surface) {
	c.commits++
}

type listener struct {
	added, removed int
}

func (lis *listener) Client(*wl.Client)       { lis.added++ }
func (lis *listener) ClientRemove(*wl.Client) { lis.removed++ }

func TestRegistryAdvertise(t *testing.T) {
	srv := wltest.NewServer(t)
	name := srv.CreateCompositor(nil, nil)
	c := srv.Connect(t)

	globals := c.Globals()
	assert.Equal(t, map[string]wl.GlobalID{wl.CompositorInterface: name}, globals)
	assert.Equal(t, wl.CompositorInterface, srv.Global(name).Interface())
	assert.Len(t, srv.Globals(), 1)
}

func TestRegistryGlobalAddRemove(t *testing.T) {
	srv := wltest.NewServer(t)
	c := srv.Connect(t)
	c.Globals()
	registry := uint32(2)

	name := srv.CreateGlobal("test_global", 3, nil, func(*wl.Client, wl.NewID) {})
	require.True(t, c.Roundtrip())

	events := c.Take(registry)
	require.Len(t, events, 1)
	assert.Equal(t, uint16(evRegistryGlobal), events[0].Op())
	assert.Equal(t, uint32(name), events[0].ReadUint())
	assert.Equal(t, "test_global", events[0].ReadString())
	assert.Equal(t, uint32(3), events[0].ReadUint())

	srv.RemoveGlobal(name)
	srv.RemoveGlobal(name)
	require.True(t, c.Roundtrip())

	events = c.Take(registry)
	require.Len(t, events, 1)
	assert.Equal(t, uint16(evRegistryGlobalRemove), events[0].Op())
	assert.Equal(t, uint32(name), events[0].ReadUint())
	assert.Nil(t, srv.Global(name))
}

func TestRegistryFilter(t *testing.T) {
	srv := wltest.NewServer(t)
	srv.CreateCompositor(nil, nil)

	var calls int
	hidden := srv.CreateGlobal("hidden", 1, func(*wl.Client) bool {
		calls++
		return false
	}, func(*wl.Client, wl.NewID) {
		t.Fatal("hidden global was bound")
	})

	c := srv.Connect(t)
	globals := c.Globals()
	assert.NotContains(t, globals, "hidden")
	assert.Equal(t, 1, calls)

	c.Bind(hidden, "hidden", 1)
	require.False(t, c.Roundtrip())
	assert.Equal(t, 2, calls)

	perr, ok := c.ProtocolError()
	require.True(t, ok)
	assert.Equal(t, uint32(2), perr.Object)
	assert.Equal(t, uint32(wl.DisplayErrorInvalidObject), perr.Code)
}

func TestBindErrors(t *testing.T) {
	tests := []struct {
		name    string
		iface   string
		version uint32
		global  wl.GlobalID
	}{
		{name: "UnknownGlobal", iface: wl.CompositorInterface, version: 1, global: 100},
		{name: "WrongInterface", iface: "wl_shm", version: 1},
		{name: "ZeroVersion", iface: wl.CompositorInterface, version: 0},
		{name: "VersionTooHigh", iface: wl.CompositorInterface, version: wl.CompositorVersion + 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := wltest.NewServer(t)
			name := srv.CreateCompositor(nil, nil)
			if test.global != 0 {
				name = test.global
			}

			c := srv.Connect(t)
			c.Bind(name, test.iface, test.version)
			require.False(t, c.Roundtrip())

			perr, ok := c.ProtocolError()
			require.True(t, ok)
			assert.Equal(t, uint32(wl.DisplayErrorInvalidObject), perr.Code)
			assert.Error(t, srv.Err())
		})
	}
}

func TestBindInvalidNewID(t *testing.T) {
	srv := wltest.NewServer(t)
	name := srv.CreateCompositor(nil, nil)
	c := srv.Connect(t)
	c.Globals()

	c.Request(2, 0, uint32(name), wl.CompositorInterface, uint32(1), uint32(1))
	require.False(t, c.Roundtrip())

	perr, ok := c.ProtocolError()
	require.True(t, ok)
	assert.Equal(t, uint32(1), perr.Object)
	assert.Equal(t, uint32(wl.DisplayErrorInvalidObject), perr.Code)
}

func TestUnknownObject(t *testing.T) {
	srv := wltest.NewServer(t)
	c := srv.Connect(t)

	c.Request(50, 0)
	require.False(t, c.Roundtrip())

	perr, ok := c.ProtocolError()
	require.True(t, ok)
	assert.Equal(t, uint32(1), perr.Object)
	assert.Equal(t, uint32(wl.DisplayErrorInvalidObject), perr.Code)
}

func TestUnknownOpcode(t *testing.T) {
	srv := wltest.NewServer(t)
	srv.CreateCompositor(nil, nil)
	c := srv.Connect(t)
	comp := c.BindInterface(wl.CompositorInterface, wl.CompositorVersion)

	c.Request(comp, 9)
	require.False(t, c.Roundtrip())

	perr, ok := c.ProtocolError()
	require.True(t, ok)
	assert.Equal(t, comp, perr.Object)
	assert.Equal(t, uint32(wl.DisplayErrorInvalidMethod), perr.Code)
}

func TestTruncatedArguments(t *testing.T) {
	srv := wltest.NewServer(t)
	srv.CreateCompositor(nil, nil)
	c := srv.Connect(t)
	comp := c.BindInterface(wl.CompositorInterface, wl.CompositorVersion)

	c.Request(comp, 0)
	require.False(t, c.Roundtrip())

	perr, ok := c.ProtocolError()
	require.True(t, ok)
	assert.Equal(t, uint32(wl.DisplayErrorInvalidMethod), perr.Code)
	assert.Contains(t, perr.Message, "create_surface")
}

func TestRegion(t *testing.T) {
	srv := wltest.NewServer(t)
	var lis compositor
	srv.CreateCompositor(&lis, nil)
	c := srv.Connect(t)
	comp := c.BindInterface(wl.CompositorInterface, wl.CompositorVersion)

	region := c.CreateRegion(comp, image.Rect(0, 0, 10, 10), image.Rect(20, 20, 20, 30))
	c.Request(region, opRegionSubtract, int32(2), int32(2), int32(4), int32(4))
	require.True(t, c.Roundtrip())
	require.NoError(t, srv.Err())

	require.Len(t, lis.regions, 1)
	ops := lis.regions[0].Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, image.Rect(0, 0, 10, 10), ops.Bounds())
	assert.True(t, ops.Contains(image.Pt(1, 1)))
	assert.False(t, ops.Contains(image.Pt(3, 3)))
	assert.False(t, ops.Contains(image.Pt(15, 15)))

	c.DestroyRegion(region)
	require.True(t, c.Roundtrip())
	assert.False(t, lis.regions[0].Alive())
	assert.Equal(t, []uint32{region}, c.DeletedIDs())
}

func TestSurfaceCommit(t *testing.T) {
	srv := wltest.NewServer(t)
	var lis compositor
	srv.CreateCompositor(&lis, nil)
	c := srv.Connect(t)
	comp := c.BindInterface(wl.CompositorInterface, wl.CompositorVersion)

	surfaceID := c.CreateSurface(comp)
	region := c.CreateRegion(comp, image.Rect(0, 0, 5, 5))
	frame := c.NewID()
	c.Request(surfaceID, opSurfaceDamage, int32(0), int32(0), int32(5), int32(5))
	c.Request(surfaceID, opSurfaceSetInputRegion, region)
	c.Request(surfaceID, opSurfaceSetScale, int32(2))
	c.Request(surfaceID, opSurfaceSetTransform, int32(3))
	c.Request(surfaceID, opSurfaceFrame, frame)
	require.True(t, c.Roundtrip())

	require.Len(t, lis.surfaces, 1)
	surface := lis.surfaces[0]
	assert.Equal(t, int32(1), surface.Current().Scale)
	assert.Zero(t, lis.commits)

	c.Request(surfaceID, opSurfaceCommit)
	require.True(t, c.Roundtrip())
	require.NoError(t, srv.Err())

	state := surface.Current()
	assert.Equal(t, 1, lis.commits)
	assert.Equal(t, int32(2), state.Scale)
	assert.Equal(t, int32(3), state.Transform)
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 5, 5)}, state.Damage)
	assert.True(t, state.InputRegion.Contains(image.Pt(1, 1)))
	require.Len(t, state.Frames, 1)

	for _, cb := range surface.TakeFrames() {
		cb.Done(uint32(time.Now().UnixMilli()))
	}
	require.True(t, c.Roundtrip())
	assert.Len(t, c.Take(frame), 1)
	assert.Contains(t, c.DeletedIDs(), frame)
	assert.Empty(t, surface.TakeFrames())

	c.Request(surfaceID, opSurfaceDestroy)
	require.True(t, c.Roundtrip())
	assert.False(t, surface.Alive())
}

func TestSurfaceErrors(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
		args []any
		code uint32
	}{
		{name: "Scale", op: opSurfaceSetScale, args: []any{int32(0)}, code: wl.SurfaceErrorInvalidScale},
		{name: "Transform", op: opSurfaceSetTransform, args: []any{int32(8)}, code: wl.SurfaceErrorInvalidTransform},
		{name: "Offset", op: opSurfaceAttach, args: []any{uint32(0), int32(1), int32(0)}, code: wl.SurfaceErrorInvalidOffset},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := wltest.NewServer(t)
			srv.CreateCompositor(nil, nil)
			c := srv.Connect(t)
			comp := c.BindInterface(wl.CompositorInterface, wl.CompositorVersion)
			surface := c.CreateSurface(comp)

			c.Request(surface, test.op, test.args...)
			require.False(t, c.Roundtrip())

			perr, ok := c.ProtocolError()
			require.True(t, ok)
			assert.Equal(t, surface, perr.Object)
			assert.Equal(t, test.code, perr.Code)
		})
	}
}

func TestSurfaceRequestVersions(t *testing.T) {
	tests := []struct {
		name    string
		version uint32
		op      uint16
		args    []any
		ok      bool
	}{
		{"DamageBufferV3", 3, opSurfaceDamageBuffer, []any{int32(0), int32(0), int32(1), int32(1)}, false},
		{"DamageBufferV4", 4, opSurfaceDamageBuffer, []any{int32(0), int32(0), int32(1), int32(1)}, true},
		{"OffsetV4", 4, opSurfaceOffset, []any{int32(1), int32(2)}, false},
		{"OffsetV5", 5, opSurfaceOffset, []any{int32(1), int32(2)}, true},
		{"ScaleV2", 2, opSurfaceSetScale, []any{int32(2)}, false},
		{"TransformV1", 1, opSurfaceSetTransform, []any{int32(1)}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := wltest.NewServer(t)
			srv.CreateCompositor(nil, nil)
			c := srv.Connect(t)
			comp := c.BindInterface(wl.CompositorInterface, test.version)
			surface := c.CreateSurface(comp)

			c.Request(surface, test.op, test.args...)
			if test.ok {
				require.True(t, c.Roundtrip())
				require.NoError(t, srv.Err())
				return
			}
			require.False(t, c.Roundtrip())

			perr, ok := c.ProtocolError()
			require.True(t, ok)
			assert.Equal(t, surface, perr.Object)
			assert.Equal(t, uint32(wl.DisplayErrorInvalidMethod), perr.Code)
		})
	}
}

func TestClientLifecycle(t *testing.T) {
	srv := wltest.NewServer(t)
	var lis listener
	srv.Listener = &lis
	srv.CreateCompositor(nil, nil)

	c := srv.Connect(t)
	comp := c.BindInterface(wl.CompositorInterface, wl.CompositorVersion)
	c.CreateSurface(comp)
	require.True(t, c.Roundtrip())
	assert.Equal(t, 1, lis.added)
	assert.Equal(t, 1, srv.Clients())

	var deleted []string
	c.Remote.Get(comp).(*wl.Compositor).OnDelete(func() { deleted = append(deleted, "compositor") })
	c.Remote.Get(comp).(*wl.Compositor).OnDelete(func() { deleted = append(deleted, "compositor2") })

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool {
		srv.Flush()
		return srv.Clients() == 0
	}, wltest.Timeout, 10*time.Millisecond)

	assert.Equal(t, 1, lis.removed)
	assert.Equal(t, []string{"compositor2", "compositor"}, deleted)
}

func TestSerial(t *testing.T) {
	srv := wltest.NewServer(t)
	c := srv.Connect(t)

	cb := c.NewID()
	c.Request(1, 0, cb)
	require.True(t, c.Roundtrip())

	events := c.Take(cb)
	require.Len(t, events, 1)
	assert.Equal(t, uint16(evCallbackDone), events[0].Op())
	serial := events[0].ReadUint()
	assert.Less(t, serial, srv.NextSerial())
}

// unixConns returns both ends of a connected socket pair.
func unixConns(t *testing.T) (*net.UnixConn, *net.UnixConn) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)

	conns := make([]*net.UnixConn, 2)
	for i, fd := range fds {
		file := os.NewFile(uintptr(fd), "socketpair")
		c, err := net.FileConn(file)
		file.Close()
		require.NoError(t, err)

		conns[i] = c.(*net.UnixConn)
		t.Cleanup(func() { conns[i].Close() })
	}
	return conns[0], conns[1]
}

func TestClientNotReading(t *testing.T) {
	srv := wltest.NewServer(t)
	var lis listener
	srv.Listener = &lis

	local, remote := unixConns(t)
	srv.AddClient(remote)

	// Every sync produces a callback done event and a delete_id, none
	// of which are ever read.
	var syncs bytes.Buffer
	for id := uint32(2); id < 200000; id++ {
		bin.Write(&syncs, uint32(1))
		bin.Write(&syncs, uint32(12<<16|opDisplaySync))
		bin.Write(&syncs, id)
	}
	go local.Write(syncs.Bytes())

	other := srv.Connect(t)

	require.Eventually(t, func() bool {
		srv.Flush()
		return lis.removed == 1
	}, 5*time.Second, time.Millisecond)
	assert.ErrorIs(t, srv.Err(), wl.ErrBufferFull)

	assert.True(t, other.Roundtrip())
	assert.Equal(t, 1, srv.Clients())
}

func TestEventBurst(t *testing.T) {
	srv := wltest.NewServer(t)
	c := srv.Connect(t)

	// The events for these don't fit in the outgoing buffer at once,
	// but a client that keeps reading gets all of them.
	ids := make([]uint32, 0, 1000)
	for i := 0; i < 1000; i++ {
		id := c.NewID()
		ids = append(ids, id)
		c.Request(1, opDisplaySync, id)
	}
	require.True(t, c.Roundtrip())
	require.NoError(t, srv.Err())
	assert.Equal(t, ids, c.DeletedIDs())
	assert.Equal(t, 1, srv.Clients())
}

func TestRequestName(t *testing.T) {
	names := []string{"destroy", "add", "subtract"}
	assert.Equal(t, "add", wl.RequestName(names, 1))
	assert.Equal(t, "unknown_3", wl.RequestName(names, 3))
	assert.Equal(t, "unknown_0", wl.RequestName(nil, 0))
}

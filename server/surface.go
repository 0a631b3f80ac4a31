package wl

import (
	"fmt"
	"image"

	"deedles.dev/wlkde/wire"
	"golang.org/x/exp/slices"
)

// SurfaceListener is notified when a surface's pending state is
// applied.
type SurfaceListener interface {
	Commit(*Surface)
}

// SurfaceState is the double-buffered state of a surface.
type SurfaceState struct {
	// Buffer is the ID of the attached wl_buffer, or 0.
	Buffer       uint32
	Offset       image.Point
	Damage       []image.Rectangle
	BufferDamage []image.Rectangle
	OpaqueRegion RegionOps
	InputRegion  RegionOps
	Transform    int32
	Scale        int32
	Frames       []*Callback
}

// Surface is a wl_surface. Protocol extensions refer to surfaces but
// never own them.
type Surface struct {
	Resource

	// Listener, if not nil, is called after each commit.
	Listener SurfaceListener

	pending SurfaceState
	current SurfaceState
}

func newSurface() *Surface {
	return &Surface{
		pending: SurfaceState{Scale: 1},
		current: SurfaceState{Scale: 1},
	}
}

func (s *Surface) Interface() string {
	return SurfaceInterface
}

func (s *Surface) MethodName(op uint16) string {
	return RequestName(surfaceRequests[:], op)
}

// Current returns the most recently committed state of the surface.
// Frame callbacks are moved out of the state by TakeFrames.
func (s *Surface) Current() SurfaceState {
	state := s.current
	state.Damage = slices.Clone(state.Damage)
	state.BufferDamage = slices.Clone(state.BufferDamage)
	state.Frames = slices.Clone(state.Frames)
	return state
}

// TakeFrames returns the committed frame callbacks and forgets them.
// The caller is expected to call Done on each.
func (s *Surface) TakeFrames() []*Callback {
	frames := s.current.Frames
	s.current.Frames = nil
	return frames
}

// surfaceRequestSince holds the version that introduced each request
// that wasn't in version 1.
var surfaceRequestSince = map[uint16]uint32{
	opSurfaceSetBufferTransform: 2,
	opSurfaceSetBufferScale:     3,
	opSurfaceDamageBuffer:       4,
	opSurfaceOffset:             5,
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	if s.version < surfaceRequestSince[msg.Op()] {
		return wire.UnknownOpError{Interface: SurfaceInterface, Type: "request", Op: msg.Op()}
	}

	args := NewArgs(s, msg)

	switch msg.Op() {
	case opSurfaceDestroy:
		s.client.Destroy(s)

	case opSurfaceAttach:
		buffer, x, y := args.Uint(), args.Int(), args.Int()
		if err := args.Err(); err != nil {
			return err
		}
		if (s.version >= 5) && ((x != 0) || (y != 0)) {
			return s.error(SurfaceErrorInvalidOffset, "provided a non-zero attach offset (%v, %v)", x, y)
		}
		s.pending.Buffer = buffer

	case opSurfaceDamage, opSurfaceDamageBuffer:
		x, y, w, h := args.Int(), args.Int(), args.Int(), args.Int()
		if err := args.Err(); err != nil {
			return err
		}
		r := image.Rect(int(x), int(y), int(x)+int(w), int(y)+int(h))
		if msg.Op() == opSurfaceDamage {
			s.pending.Damage = append(s.pending.Damage, r)
		} else {
			s.pending.BufferDamage = append(s.pending.BufferDamage, r)
		}

	case opSurfaceFrame:
		id := args.NewID()
		if err := args.Err(); err != nil {
			return err
		}
		var cb Callback
		id.Init(&cb)
		s.pending.Frames = append(s.pending.Frames, &cb)

	case opSurfaceSetOpaqueRegion, opSurfaceSetInputRegion:
		region := ReadObject[*Region](args, true)
		if err := args.Err(); err != nil {
			return err
		}
		var ops RegionOps
		if region != nil {
			ops = region.Ops()
		}
		if msg.Op() == opSurfaceSetOpaqueRegion {
			s.pending.OpaqueRegion = ops
		} else {
			s.pending.InputRegion = ops
		}

	case opSurfaceCommit:
		s.commit()

	case opSurfaceSetBufferTransform:
		transform := args.Int()
		if err := args.Err(); err != nil {
			return err
		}
		if (transform < 0) || (transform > 7) {
			return s.error(SurfaceErrorInvalidTransform, "buffer transform value %v is invalid", transform)
		}
		s.pending.Transform = transform

	case opSurfaceSetBufferScale:
		scale := args.Int()
		if err := args.Err(); err != nil {
			return err
		}
		if scale < 1 {
			return s.error(SurfaceErrorInvalidScale, "buffer scale value %v is not positive", scale)
		}
		s.pending.Scale = scale

	case opSurfaceOffset:
		x, y := args.Int(), args.Int()
		if err := args.Err(); err != nil {
			return err
		}
		s.pending.Offset = image.Pt(int(x), int(y))

	default:
		return wire.UnknownOpError{Interface: SurfaceInterface, Type: "request", Op: msg.Op()}
	}

	return nil
}

func (s *Surface) commit() {
	frames := append(s.current.Frames, s.pending.Frames...)
	s.current = s.pending
	s.current.Frames = frames

	s.pending.Damage = nil
	s.pending.BufferDamage = nil
	s.pending.Frames = nil
	s.pending.Offset = image.Point{}

	if s.Listener != nil {
		s.Listener.Commit(s)
	}
}

func (s *Surface) error(code uint32, format string, a ...any) ProtocolError {
	return ProtocolError{
		Object:  s.id,
		Code:    code,
		Message: fmt.Sprintf(format, a...),
	}
}

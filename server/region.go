package wl

import (
	"image"

	"deedles.dev/wlkde/wire"
	"golang.org/x/exp/slices"
)

// RegionOp is one step in building a region.
type RegionOp struct {
	Rect     image.Rectangle
	Subtract bool
}

// RegionOps is a region described as the sequence of additions and
// subtractions that built it.
type RegionOps []RegionOp

// Contains reports whether p is inside the region.
func (ops RegionOps) Contains(p image.Point) bool {
	var in bool
	for _, op := range ops {
		if p.In(op.Rect) {
			in = !op.Subtract
		}
	}
	return in
}

// Bounds returns the smallest rectangle containing every added
// rectangle. Subtractions are not taken into account.
func (ops RegionOps) Bounds() (r image.Rectangle) {
	for _, op := range ops {
		if !op.Subtract {
			r = r.Union(op.Rect)
		}
	}
	return r
}

// Region is a wl_region.
type Region struct {
	Resource
	ops RegionOps
}

func (r *Region) Interface() string {
	return RegionInterface
}

func (r *Region) MethodName(op uint16) string {
	return RequestName(regionRequests[:], op)
}

func (r *Region) Dispatch(msg *wire.MessageBuffer) error {
	args := NewArgs(r, msg)

	switch msg.Op() {
	case opRegionDestroy:
		r.client.Destroy(r)
		return nil

	case opRegionAdd, opRegionSubtract:
		x, y, w, h := args.Int(), args.Int(), args.Int(), args.Int()
		if err := args.Err(); err != nil {
			return err
		}
		if (w <= 0) || (h <= 0) {
			return nil
		}

		r.ops = append(r.ops, RegionOp{
			Rect:     image.Rect(int(x), int(y), int(x)+int(w), int(y)+int(h)),
			Subtract: msg.Op() == opRegionSubtract,
		})
		return nil

	default:
		return wire.UnknownOpError{Interface: RegionInterface, Type: "request", Op: msg.Op()}
	}
}

// Ops returns a copy of the operations that make up the region.
func (r *Region) Ops() RegionOps {
	return slices.Clone(r.ops)
}

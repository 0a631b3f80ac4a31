package kde

import (
	wl "deedles.dev/wlkde/server"
	"deedles.dev/wlkde/wire"
)

// BlurHandler receives the events of the blur extension.
type BlurHandler interface {
	// KdeBlurState returns the state created for the handler.
	KdeBlurState() *BlurState

	// NewBlur is called when a client creates a blur object for
	// surface. The object is fully initialized when it is called.
	NewBlur(surface *wl.Surface, blur *Blur)

	// UnsetBlur is called when a client asks for any blur behind
	// surface to be removed. It does not involve a blur object.
	UnsetBlur(surface *wl.Surface)

	// BlurCommit is called when the client commits the blur's pending
	// state. The new state should be applied together with the
	// surface's next commit.
	BlurCommit(surface *wl.Surface, blur *Blur)

	// BlurSetRegion is called when the client sets the region to blur.
	// A nil region means that the region should be cleared.
	BlurSetRegion(surface *wl.Surface, blur *Blur, region *wl.Region)

	// BlurRelease is called when the client destroys blur. It is not
	// called if the client disconnects instead.
	BlurRelease(blur *Blur, surface *wl.Surface)
}

// NopBlurHandler implements every method of BlurHandler except
// KdeBlurState by doing nothing.
type NopBlurHandler struct{}

func (NopBlurHandler) NewBlur(*wl.Surface, *Blur)                   {}
func (NopBlurHandler) UnsetBlur(*wl.Surface)                        {}
func (NopBlurHandler) BlurCommit(*wl.Surface, *Blur)                {}
func (NopBlurHandler) BlurSetRegion(*wl.Surface, *Blur, *wl.Region) {}
func (NopBlurHandler) BlurRelease(*Blur, *wl.Surface)               {}

// BlurState is the compositor-wide state of the blur extension.
type BlurState struct {
	global wl.GlobalID
}

// NewBlurState advertises the org_kde_kwin_blur_manager global to
// every client.
func NewBlurState(srv *wl.Server, handler BlurHandler) *BlurState {
	return NewBlurStateWithFilter(srv, handler, wl.AllClients)
}

// NewBlurStateWithFilter advertises the org_kde_kwin_blur_manager
// global to the clients that filter allows.
func NewBlurStateWithFilter(srv *wl.Server, handler BlurHandler, filter wl.ClientFilter) *BlurState {
	global := createGlobal(srv, BlurManagerInterface, BlurManagerVersion, filter, func() *BlurManager {
		return &BlurManager{handler: handler}
	}, nil)
	return &BlurState{global: global}
}

// Global returns the name of the manager global.
func (s *BlurState) Global() wl.GlobalID {
	return s.global
}

type blurManagerRequest interface {
	isBlurManagerRequest()
}

type blurManagerCreate struct {
	id      wl.NewID
	surface *wl.Surface
}

type blurManagerUnset struct {
	surface *wl.Surface
}

func (blurManagerCreate) isBlurManagerRequest() {}
func (blurManagerUnset) isBlurManagerRequest()  {}

// BlurManager is a client's binding of the blur manager global.
type BlurManager struct {
	wl.Resource
	handler BlurHandler
}

func (m *BlurManager) Interface() string {
	return BlurManagerInterface
}

func (m *BlurManager) MethodName(op uint16) string {
	return wl.RequestName(blurManagerRequests[:], op)
}

func (m *BlurManager) Dispatch(msg *wire.MessageBuffer) error {
	return dispatch(m, msg, m.decode, m.handle)
}

func (m *BlurManager) decode(args *wl.Args, op uint16) (blurManagerRequest, bool) {
	switch op {
	case opBlurManagerCreate:
		id := args.NewID()
		surface := wl.ReadObject[*wl.Surface](args, false)
		return blurManagerCreate{id: id, surface: surface}, true

	case opBlurManagerUnset:
		surface := wl.ReadObject[*wl.Surface](args, false)
		return blurManagerUnset{surface: surface}, true

	default:
		return nil, false
	}
}

func (m *BlurManager) handle(req blurManagerRequest) {
	switch req := req.(type) {
	case blurManagerCreate:
		blur := Blur{surface: req.surface, handler: m.handler}
		req.id.Init(&blur)
		m.handler.NewBlur(req.surface, &blur)

	case blurManagerUnset:
		m.handler.UnsetBlur(req.surface)

	default:
		unreachable(req)
	}
}

type blurRequest interface {
	isBlurRequest()
}

type blurCommit struct{}

type blurSetRegion struct {
	region *wl.Region
}

type blurRelease struct{}

func (blurCommit) isBlurRequest()    {}
func (blurSetRegion) isBlurRequest() {}
func (blurRelease) isBlurRequest()   {}

// Blur holds a client's request to blur the area behind a surface.
type Blur struct {
	wl.Resource
	surface *wl.Surface
	handler BlurHandler
}

// Surface returns the surface that the blur was created for.
func (blur *Blur) Surface() *wl.Surface {
	return blur.surface
}

func (blur *Blur) Interface() string {
	return BlurInterface
}

func (blur *Blur) MethodName(op uint16) string {
	return wl.RequestName(blurRequests[:], op)
}

func (blur *Blur) Dispatch(msg *wire.MessageBuffer) error {
	return dispatch(blur, msg, blur.decode, blur.handle)
}

func (blur *Blur) decode(args *wl.Args, op uint16) (blurRequest, bool) {
	switch op {
	case opBlurCommit:
		return blurCommit{}, true

	case opBlurSetRegion:
		region := wl.ReadObject[*wl.Region](args, true)
		return blurSetRegion{region: region}, true

	case opBlurRelease:
		return blurRelease{}, true

	default:
		return nil, false
	}
}

func (blur *Blur) handle(req blurRequest) {
	switch req := req.(type) {
	case blurCommit:
		blur.handler.BlurCommit(blur.surface, blur)

	case blurSetRegion:
		blur.handler.BlurSetRegion(blur.surface, blur, req.region)

	case blurRelease:
		blur.handler.BlurRelease(blur, blur.surface)
		blur.Client().Destroy(blur)

	default:
		unreachable(req)
	}
}

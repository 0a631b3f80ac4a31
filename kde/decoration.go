package kde

import (
	"fmt"
	"strings"

	wl "deedles.dev/wlkde/server"
	"deedles.dev/wlkde/wire"
)

// DecorationMode says who draws a window's decorations.
type DecorationMode uint32

const (
	// DecorationModeNone means that the window has no decorations.
	DecorationModeNone DecorationMode = ServerDecorationModeNone

	// DecorationModeClient means that the client draws decorations.
	DecorationModeClient DecorationMode = ServerDecorationModeClient

	// DecorationModeServer means that the compositor draws
	// decorations.
	DecorationModeServer DecorationMode = ServerDecorationModeServer
)

var decorationModeNames = map[DecorationMode]string{
	DecorationModeNone:   "none",
	DecorationModeClient: "client",
	DecorationModeServer: "server",
}

// ParseDecorationMode parses the name of a mode, as returned by
// String. Case is ignored.
func ParseDecorationMode(str string) (DecorationMode, error) {
	for mode, name := range decorationModeNames {
		if strings.EqualFold(str, name) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown decoration mode %q", str)
}

func (mode DecorationMode) String() string {
	if name, ok := decorationModeNames[mode]; ok {
		return name
	}
	return fmt.Sprintf("DecorationMode(%d)", uint32(mode))
}

func (mode DecorationMode) MarshalText() ([]byte, error) {
	if _, ok := decorationModeNames[mode]; !ok {
		return nil, fmt.Errorf("unknown decoration mode %d", uint32(mode))
	}
	return []byte(mode.String()), nil
}

func (mode *DecorationMode) UnmarshalText(text []byte) error {
	m, err := ParseDecorationMode(string(text))
	if err != nil {
		return err
	}
	*mode = m
	return nil
}

// DecorationHandler receives the events of the server decoration
// extension.
type DecorationHandler interface {
	// KdeDecorationState returns the state created for the handler.
	KdeDecorationState() *DecorationState

	// NewDecoration is called when a client creates a decoration
	// object for surface. The object is fully initialized when it is
	// called.
	NewDecoration(surface *wl.Surface, decoration *Decoration)

	// RequestDecorationMode is called when the client asks for a
	// decoration mode. The mode is not validated. The compositor
	// answers, if it wants to, with Decoration.Mode.
	RequestDecorationMode(surface *wl.Surface, decoration *Decoration, mode DecorationMode)

	// DecorationRelease is called when the client destroys decoration.
	// It is not called if the client disconnects instead.
	DecorationRelease(decoration *Decoration, surface *wl.Surface)
}

// NopDecorationHandler implements every method of DecorationHandler
// except KdeDecorationState by doing nothing.
type NopDecorationHandler struct{}

func (NopDecorationHandler) NewDecoration(*wl.Surface, *Decoration)                         {}
func (NopDecorationHandler) RequestDecorationMode(*wl.Surface, *Decoration, DecorationMode) {}
func (NopDecorationHandler) DecorationRelease(*Decoration, *wl.Surface)                     {}

// DecorationState is the compositor-wide state of the server
// decoration extension.
type DecorationState struct {
	global      wl.GlobalID
	defaultMode DecorationMode
}

// NewDecorationState advertises the
// org_kde_kwin_server_decoration_manager global to every client.
// defaultMode is announced to each client when it binds the global.
func NewDecorationState(srv *wl.Server, handler DecorationHandler, defaultMode DecorationMode) *DecorationState {
	return NewDecorationStateWithFilter(srv, handler, defaultMode, wl.AllClients)
}

// NewDecorationStateWithFilter advertises the
// org_kde_kwin_server_decoration_manager global to the clients that
// filter allows.
func NewDecorationStateWithFilter(srv *wl.Server, handler DecorationHandler, defaultMode DecorationMode, filter wl.ClientFilter) *DecorationState {
	s := DecorationState{defaultMode: defaultMode}
	s.global = createGlobal(srv, ServerDecorationManagerInterface, ServerDecorationManagerVersion, filter, func() *DecorationManager {
		return &DecorationManager{handler: handler}
	}, func(m *DecorationManager) {
		m.defaultMode(handler.KdeDecorationState().DefaultMode())
	})
	return &s
}

// Global returns the name of the manager global.
func (s *DecorationState) Global() wl.GlobalID {
	return s.global
}

// DefaultMode returns the mode announced to clients that bind the
// manager.
func (s *DecorationState) DefaultMode() DecorationMode {
	return s.defaultMode
}

// SetDefaultMode changes the mode announced to clients that bind the
// manager from now on. Clients that have already bound it are not
// told.
func (s *DecorationState) SetDefaultMode(mode DecorationMode) {
	s.defaultMode = mode
}

type decorationManagerRequest interface {
	isDecorationManagerRequest()
}

type decorationManagerCreate struct {
	id      wl.NewID
	surface *wl.Surface
}

func (decorationManagerCreate) isDecorationManagerRequest() {}

// DecorationManager is a client's binding of the server decoration
// manager global.
type DecorationManager struct {
	wl.Resource
	handler DecorationHandler
}

func (m *DecorationManager) Interface() string {
	return ServerDecorationManagerInterface
}

func (m *DecorationManager) MethodName(op uint16) string {
	return wl.RequestName(serverDecorationManagerRequests[:], op)
}

func (m *DecorationManager) Dispatch(msg *wire.MessageBuffer) error {
	return dispatch(m, msg, m.decode, m.handle)
}

func (m *DecorationManager) decode(args *wl.Args, op uint16) (decorationManagerRequest, bool) {
	switch op {
	case opServerDecorationManagerCreate:
		id := args.NewID()
		surface := wl.ReadObject[*wl.Surface](args, false)
		return decorationManagerCreate{id: id, surface: surface}, true

	default:
		return nil, false
	}
}

func (m *DecorationManager) handle(req decorationManagerRequest) {
	switch req := req.(type) {
	case decorationManagerCreate:
		decoration := Decoration{surface: req.surface, handler: m.handler}
		req.id.Init(&decoration)
		m.handler.NewDecoration(req.surface, &decoration)

	default:
		unreachable(req)
	}
}

func (m *DecorationManager) defaultMode(mode DecorationMode) {
	msg := wl.NewEvent(m, evServerDecorationManagerDefaultMode, "default_mode", mode)
	msg.WriteUint(uint32(mode))
	m.Client().Send(msg)
}

type decorationRequest interface {
	isDecorationRequest()
}

type decorationRelease struct{}

type decorationRequestMode struct {
	mode DecorationMode
}

func (decorationRelease) isDecorationRequest()     {}
func (decorationRequestMode) isDecorationRequest() {}

// Decoration negotiates the decoration mode of a single surface.
type Decoration struct {
	wl.Resource
	surface *wl.Surface
	handler DecorationHandler
}

// Surface returns the surface that the decoration was created for.
func (d *Decoration) Surface() *wl.Surface {
	return d.surface
}

func (d *Decoration) Interface() string {
	return ServerDecorationInterface
}

func (d *Decoration) MethodName(op uint16) string {
	return wl.RequestName(serverDecorationRequests[:], op)
}

func (d *Decoration) Dispatch(msg *wire.MessageBuffer) error {
	return dispatch(d, msg, d.decode, d.handle)
}

func (d *Decoration) decode(args *wl.Args, op uint16) (decorationRequest, bool) {
	switch op {
	case opServerDecorationRelease:
		return decorationRelease{}, true

	case opServerDecorationRequestMode:
		mode := DecorationMode(args.Uint())
		return decorationRequestMode{mode: mode}, true

	default:
		return nil, false
	}
}

func (d *Decoration) handle(req decorationRequest) {
	switch req := req.(type) {
	case decorationRelease:
		d.handler.DecorationRelease(d, d.surface)
		d.Client().Destroy(d)

	case decorationRequestMode:
		d.handler.RequestDecorationMode(d.surface, d, req.mode)

	default:
		unreachable(req)
	}
}

// Mode tells the client which decoration mode is in effect for the
// surface. It does nothing if the decoration has been destroyed.
func (d *Decoration) Mode(mode DecorationMode) {
	if !d.Alive() {
		return
	}

	msg := wl.NewEvent(d, evServerDecorationMode, "mode", mode)
	msg.WriteUint(uint32(mode))
	d.Client().Send(msg)
}

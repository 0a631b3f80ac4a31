package kde

import (
	wl "deedles.dev/wlkde/server"
	"deedles.dev/wlkde/wire"
)

// AppmenuHandler receives the events of the appmenu extension.
type AppmenuHandler interface {
	// KdeAppmenuState returns the state created for the handler.
	KdeAppmenuState() *AppmenuState

	// NewAppmenu is called when a client creates an appmenu object for
	// surface. The object is fully initialized when it is called.
	NewAppmenu(surface *wl.Surface, menu *Appmenu)

	// SetAppmenuAddress is called when the client announces the DBus
	// service name and object path of the surface's menu. Neither is
	// validated.
	SetAppmenuAddress(surface *wl.Surface, menu *Appmenu, serviceName, objectPath string)

	// AppmenuRelease is called when the client destroys menu. It is not
	// called if the client disconnects instead.
	AppmenuRelease(menu *Appmenu, surface *wl.Surface)
}

// NopAppmenuHandler implements every method of AppmenuHandler except
// KdeAppmenuState by doing nothing.
type NopAppmenuHandler struct{}

func (NopAppmenuHandler) NewAppmenu(*wl.Surface, *Appmenu)                        {}
func (NopAppmenuHandler) SetAppmenuAddress(*wl.Surface, *Appmenu, string, string) {}
func (NopAppmenuHandler) AppmenuRelease(*Appmenu, *wl.Surface)                    {}

// AppmenuState is the compositor-wide state of the appmenu extension.
type AppmenuState struct {
	global wl.GlobalID
}

// NewAppmenuState advertises the org_kde_kwin_appmenu_manager global
// to every client.
func NewAppmenuState(srv *wl.Server, handler AppmenuHandler) *AppmenuState {
	return NewAppmenuStateWithFilter(srv, handler, wl.AllClients)
}

// NewAppmenuStateWithFilter advertises the
// org_kde_kwin_appmenu_manager global to the clients that filter
// allows.
func NewAppmenuStateWithFilter(srv *wl.Server, handler AppmenuHandler, filter wl.ClientFilter) *AppmenuState {
	global := createGlobal(srv, AppmenuManagerInterface, AppmenuManagerVersion, filter, func() *AppmenuManager {
		return &AppmenuManager{handler: handler}
	}, nil)
	return &AppmenuState{global: global}
}

// Global returns the name of the manager global.
func (s *AppmenuState) Global() wl.GlobalID {
	return s.global
}

type appmenuManagerRequest interface {
	isAppmenuManagerRequest()
}

type appmenuManagerCreate struct {
	id      wl.NewID
	surface *wl.Surface
}

type appmenuManagerRelease struct{}

func (appmenuManagerCreate) isAppmenuManagerRequest()  {}
func (appmenuManagerRelease) isAppmenuManagerRequest() {}

// AppmenuManager is a client's binding of the appmenu manager global.
type AppmenuManager struct {
	wl.Resource
	handler AppmenuHandler
}

func (m *AppmenuManager) Interface() string {
	return AppmenuManagerInterface
}

func (m *AppmenuManager) MethodName(op uint16) string {
	return wl.RequestName(appmenuManagerRequests[:], op)
}

func (m *AppmenuManager) Dispatch(msg *wire.MessageBuffer) error {
	return dispatch(m, msg, m.decode, m.handle)
}

func (m *AppmenuManager) decode(args *wl.Args, op uint16) (appmenuManagerRequest, bool) {
	switch op {
	case opAppmenuManagerCreate:
		id := args.NewID()
		surface := wl.ReadObject[*wl.Surface](args, false)
		return appmenuManagerCreate{id: id, surface: surface}, true

	case opAppmenuManagerRelease:
		if m.Version() < 2 {
			return nil, false
		}
		return appmenuManagerRelease{}, true

	default:
		return nil, false
	}
}

func (m *AppmenuManager) handle(req appmenuManagerRequest) {
	switch req := req.(type) {
	case appmenuManagerCreate:
		menu := Appmenu{surface: req.surface, handler: m.handler}
		req.id.Init(&menu)
		m.handler.NewAppmenu(req.surface, &menu)

	case appmenuManagerRelease:
		m.Client().Destroy(m)

	default:
		unreachable(req)
	}
}

type appmenuRequest interface {
	isAppmenuRequest()
}

type appmenuSetAddress struct {
	serviceName string
	objectPath  string
}

type appmenuRelease struct{}

func (appmenuSetAddress) isAppmenuRequest() {}
func (appmenuRelease) isAppmenuRequest()    {}

// Appmenu links a surface to the DBus object that exports its menu.
type Appmenu struct {
	wl.Resource
	surface *wl.Surface
	handler AppmenuHandler
}

// Surface returns the surface that the appmenu was created for.
func (menu *Appmenu) Surface() *wl.Surface {
	return menu.surface
}

func (menu *Appmenu) Interface() string {
	return AppmenuInterface
}

func (menu *Appmenu) MethodName(op uint16) string {
	return wl.RequestName(appmenuRequests[:], op)
}

func (menu *Appmenu) Dispatch(msg *wire.MessageBuffer) error {
	return dispatch(menu, msg, menu.decode, menu.handle)
}

func (menu *Appmenu) decode(args *wl.Args, op uint16) (appmenuRequest, bool) {
	switch op {
	case opAppmenuSetAddress:
		serviceName := args.String()
		objectPath := args.String()
		return appmenuSetAddress{serviceName: serviceName, objectPath: objectPath}, true

	case opAppmenuRelease:
		return appmenuRelease{}, true

	default:
		return nil, false
	}
}

func (menu *Appmenu) handle(req appmenuRequest) {
	switch req := req.(type) {
	case appmenuSetAddress:
		menu.handler.SetAppmenuAddress(menu.surface, menu, req.serviceName, req.objectPath)

	case appmenuRelease:
		menu.handler.AppmenuRelease(menu, menu.surface)
		menu.Client().Destroy(menu)

	default:
		unreachable(req)
	}
}

package kde

import (
	"fmt"

	"deedles.dev/wlkde/internal/debug"
	wl "deedles.dev/wlkde/server"
	"deedles.dev/wlkde/wire"
	"github.com/sirupsen/logrus"
)

// createGlobal advertises an extension's manager global. Each bind
// creates a new manager with newManager and initializes it for the
// binding client, after which bound, if not nil, is called with it.
func createGlobal[M wl.Object](srv *wl.Server, iface string, version uint32, filter wl.ClientFilter, newManager func() M, bound func(M)) wl.GlobalID {
	if filter == nil {
		filter = wl.AllClients
	}

	return srv.CreateGlobal(iface, version, filter, func(client *wl.Client, id wl.NewID) {
		m := newManager()
		id.Init(m)

		debug.WithFields(logrus.Fields{
			"client":  client,
			"manager": m,
		}).Trace("Manager bound")

		if bound != nil {
			bound(m)
		}
	})
}

// dispatch decodes msg, sent to obj, and hands the decoded request to
// handle. decode must report false for opcodes that obj does not
// support at its version.
func dispatch[R any](obj wl.Object, msg *wire.MessageBuffer, decode func(*wl.Args, uint16) (R, bool), handle func(R)) error {
	args := wl.NewArgs(obj, msg)
	req, ok := decode(args, msg.Op())
	if !ok {
		return wire.UnknownOpError{Interface: obj.Interface(), Type: "request", Op: msg.Op()}
	}
	if err := args.Err(); err != nil {
		return err
	}

	if debug.Tracing() {
		fields := logrus.Fields{
			"object":  obj,
			"request": obj.MethodName(msg.Op()),
		}
		if s, ok := obj.(interface{ Surface() *wl.Surface }); ok {
			fields["surface"] = s.Surface()
		}
		debug.WithFields(fields).Trace("Handling request")
	}

	handle(req)
	return nil
}

func unreachable(req any) {
	panic(fmt.Errorf("unreachable: unexpected request type %T", req))
}

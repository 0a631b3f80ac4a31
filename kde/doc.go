// Package kde implements the server side of three KDE protocol
// extensions: org_kde_kwin_appmenu, which links a surface to the DBus
// object exporting its application menu, org_kde_kwin_blur, which asks
// the compositor to blur what is behind a surface, and
// org_kde_kwin_server_decoration, which negotiates whether the client
// or the compositor draws window decorations.
//
// Each extension follows the same shape. A state type, created with
// NewXxxState, advertises a manager global that is visible only to the
// clients that its filter allows. Clients use the manager to create
// objects that stay attached to a single surface for their entire
// lifetime, and every request that they send is passed to a handler
// interface implemented by the compositor. Each handler interface has
// a matching NopXxxHandler that can be embedded to ignore the events
// that a compositor doesn't care about.
//
// Handlers are called from within wl.Server.Flush.
package kde

//go:generate go run deedles.dev/wlkde/cmd/wlgen -pkg kde -prefix org_kde_kwin_ -out protocol.go -xml ../protocol/xml/appmenu.xml,../protocol/xml/blur.xml,../protocol/xml/server-decoration.xml

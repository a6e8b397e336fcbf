package webapp

import (
	"github.com/drummonds/bandgap/store"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

var routeIcons = map[string]string{
	RouteHome:  "🔬",
	RouteAbout: "ℹ️",
	RouteDocs:  "📖",
}

// Sidebar is the left sidebar menu component
type Sidebar struct {
	app.Compo
	isOpen bool
}

// OnMount is called when the component is mounted
func (s *Sidebar) OnMount(ctx app.Context) {
	s.isOpen = isSidebarOpen(ctx)
}

// OnNav is called when navigation occurs
func (s *Sidebar) OnNav(ctx app.Context) {
	s.isOpen = isSidebarOpen(ctx)
}

// Render renders the sidebar
func (s *Sidebar) Render() app.UI {
	class := "sidebar"
	if s.isOpen {
		class += " sidebar-open"
	}

	items := make([]app.UI, 0, len(Routes))
	for _, route := range Routes {
		items = append(items, s.renderNavItem(routeIcons[route.Name], route.Label, route.Path))
	}

	return app.Aside().
		Class(class).
		Body(
			app.Div().Class("sidebar-header").Body(
				app.H2().Text("Menu"),
			),
			app.Nav().Class("sidebar-nav").Body(items...),
			app.Div().Class("sidebar-models").Body(
				app.H3().Text("Models"),
				app.Range(store.ModelTypes).Slice(func(i int) app.UI {
					model := store.ModelTypes[i]
					return app.Details().Body(
						app.Summary().Text(model.Label),
						app.P().Class("sidebar-model-description").Text(model.Description),
					)
				}),
			),
		)
}

// renderNavItem creates a navigation item
func (s *Sidebar) renderNavItem(icon, label, href string) app.UI {
	currentPath := app.Window().URL().Path
	class := "sidebar-item"
	if currentPath == href {
		class += " sidebar-item-active"
	}

	return app.A().
		Href(href).
		Class(class).
		Body(
			app.Span().Class("sidebar-icon").Text(icon),
			app.Span().Class("sidebar-label").Text(label),
		)
}

// isSidebarOpen retrieves the sidebar open/closed state from local storage
func isSidebarOpen(ctx app.Context) bool {
	var isOpen bool
	ctx.LocalStorage().Get("sidebar-open", &isOpen)
	return isOpen
}

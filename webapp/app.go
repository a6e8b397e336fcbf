package webapp

import (
	"github.com/drummonds/bandgap/store"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// App is the root component of the application
type App struct {
	app.Compo
	Store *store.Store
}

// Render renders the app
func (a *App) Render() app.UI {
	return app.Div().
		Class("app-container").
		Body(
			app.Header().Body(
				&NavBar{Store: a.Store},
			),
			app.Div().Class("app-layout").Body(
				&Sidebar{},
				app.Main().Class("main-content").Body(
					app.Div().Class("content").Body(
						a.renderPage(app.Window().URL().Path),
					),
				),
			),
			app.Footer().Class("footer").Body(
				app.P().Text("© 2024 BandGap-ml. Predicting material band gaps based on chemical composition."),
			),
		)
}

// renderPage renders the page registered for path
func (a *App) renderPage(path string) app.UI {
	route, ok := Resolve(path)
	if !ok {
		return &NotFoundPage{Path: path}
	}
	switch route.Name {
	case RouteHome:
		return &HomePage{Store: a.Store}
	case RouteAbout:
		return &AboutPage{Store: a.Store}
	case RouteDocs:
		return &DocsPage{}
	default:
		return &NotFoundPage{Path: path}
	}
}

package webapp

import (
	"github.com/drummonds/bandgap/store"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// RegisterRoutes binds every path of the route table to the App component.
// Each mounted App shares st.
func RegisterRoutes(st *store.Store) {
	for _, route := range Routes {
		app.Route(route.Path, func() app.Composer { return &App{Store: st} })
	}
}

// Handler registers the routes and returns the HTTP handler serving the web app
func Handler(st *store.Store) *app.Handler {
	RegisterRoutes(st)

	// app.wasm is served from /web/app.wasm
	return &app.Handler{
		Name:        "BandGap-ml",
		ShortName:   "BandGap",
		Title:       "BandGap-ml: Band Gap Prediction",
		Description: "Predict the band gap of materials from their chemical formula",
		Icon: app.Icon{
			Default: "/favicon.ico",
		},
		Styles: []string{
			"/webapp/webapp.css",
		},
		Scripts: []string{
			"/config.js", // Load the client store configuration
		},
		RawHeaders: []string{
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		},
	}
}

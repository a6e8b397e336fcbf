package webapp

import (
	"github.com/drummonds/bandgap/store"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutPage displays information about the application and the service it talks to
type AboutPage struct {
	app.Compo
	Store *store.Store

	state       store.State
	unsubscribe func()
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.unsubscribe = observe(ctx, a.Store, func(state store.State) {
		a.state = state
	})
}

// OnDismount is called when the component is unmounted
func (a *AboutPage) OnDismount() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	return app.Div().Class("about-page").Body(
		app.H2().Text("About BandGap-ml"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("BandGap-ml: Band Gap Prediction"),
				app.P().Text("This app allows you to predict the band gap of materials either by uploading a CSV file or by entering chemical formulas."),
				app.P().Text("Predictions are made from the chemical composition alone: a classifier decides whether the material is a semiconductor and a regressor estimates its band gap in eV."),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Application Information"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", Version),
					a.renderInfoItem("Prediction API", a.getAPIDisplay()),
					a.renderInfoItem("API Status", statusLabel(a.state.APIStatus)),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Models"),
				app.Ul().Class("model-list").Body(
					app.Range(store.ModelTypes).Slice(func(i int) app.UI {
						model := store.ModelTypes[i]
						return app.Li().Body(
							app.Strong().Text(model.Label+": "),
							app.Text(model.Description),
						)
					}),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Author"),
				app.P().Body(
					app.Strong().Text("Dr. Aleksei Krasnov"),
				),
				app.P().Body(
					app.A().
						Href("https://github.com/alexey-krasnov").
						Target("_blank").
						Text("github.com/alexey-krasnov"),
				),
			),
			&RunsPanel{},
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// getAPIDisplay returns the API URL the store was built with
func (a *AboutPage) getAPIDisplay() string {
	if a.Store == nil || a.Store.APIURL() == "" {
		return "Not configured"
	}
	return a.Store.APIURL()
}

package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// NotFoundPage is shown for any path outside Routes
type NotFoundPage struct {
	app.Compo
	Path string
}

func (p *NotFoundPage) Render() app.UI {
	message := "This page does not exist."
	if p.Path != "" {
		message = "Nothing lives at " + p.Path + "."
	}

	return app.Section().Class("not-found-page").Body(
		app.H1().Text("404"),
		app.P().Class("not-found-message").Text(message),
		app.P().Text("Try one of these instead:"),
		app.Ul().Class("not-found-links").Body(
			app.Range(Routes).Slice(func(i int) app.UI {
				route := Routes[i]
				return app.Li().Body(
					app.A().Href(route.Path).Text(route.Label),
				)
			}),
		),
	)
}

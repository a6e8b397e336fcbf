package webapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/drummonds/bandgap/store"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Version info - can be set at build time with -ldflags
var (
	Version   = "dev"
	BuildDate = ""
)

// NavBar is the navigation bar component
type NavBar struct {
	app.Compo
	Store *store.Store

	apiStatus   string
	unsubscribe func()
}

// OnMount subscribes to the store and checks the API. The navbar is on
// every page, so the badge is filled whichever route is opened first.
func (n *NavBar) OnMount(ctx app.Context) {
	n.unsubscribe = observe(ctx, n.Store, func(state store.State) {
		n.apiStatus = state.APIStatus
	})
	if n.Store == nil {
		return
	}
	ctx.Async(func() {
		refreshAPIStatus(context.Background(), n.Store)
	})
}

// OnDismount is called when the component is unmounted
func (n *NavBar) OnDismount() {
	if n.unsubscribe != nil {
		n.unsubscribe()
	}
}

// Render renders the navigation bar
func (n *NavBar) Render() app.UI {
	links := make([]app.UI, 0, len(Routes))
	for _, route := range Routes {
		links = append(links, app.A().
			Href(route.Path).
			Class("navbar-item").
			Body(app.Text(route.Label)))
	}

	return app.Nav().
		Class("navbar").
		Body(
			app.Button().
				Class("hamburger-menu").
				ID("menu-toggle").
				OnClick(n.onMenuToggle).
				Body(
					// Three horizontal lines for hamburger menu
					app.Span().Class("hamburger-line"),
					app.Span().Class("hamburger-line"),
					app.Span().Class("hamburger-line"),
				),
			app.Div().Class("navbar-brand").Body(
				app.H1().Text("BandGap-ml"),
				app.Span().Class("version-info").Body(
					app.Text(n.getVersionInfo()),
				),
			),
			app.Div().Class("navbar-menu").Body(links...),
			app.Span().
				Class("api-status "+statusClass(n.apiStatus)).
				Title("Prediction service status").
				Text(statusLabel(n.apiStatus)),
		)
}

// onMenuToggle handles the hamburger menu click
func (n *NavBar) onMenuToggle(ctx app.Context, e app.Event) {
	ctx.Dispatch(func(ctx app.Context) {
		ctx.LocalStorage().Set("sidebar-open", !isSidebarOpen(ctx))
		ctx.Reload()
	})
}

// getVersionInfo returns formatted version and date information
func (n *NavBar) getVersionInfo() string {
	date := BuildDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return fmt.Sprintf("%s | %s", Version, date)
}

// refreshAPIStatus runs the health check. The outcome lands in APIStatus.
func refreshAPIStatus(ctx context.Context, st *store.Store) {
	if st == nil {
		return
	}
	st.CheckAPIHealth(ctx)
}

// statusLabel is the badge text for an APIStatus value
func statusLabel(apiStatus string) string {
	switch {
	case apiStatus == "":
		return "API: checking..."
	case strings.HasPrefix(apiStatus, "Error: "):
		return "API: unavailable"
	default:
		return "API: " + apiStatus
	}
}

// statusClass is the badge CSS modifier for an APIStatus value
func statusClass(apiStatus string) string {
	switch {
	case apiStatus == "":
		return "api-status-unknown"
	case strings.HasPrefix(apiStatus, "Error: "):
		return "api-status-down"
	default:
		return "api-status-up"
	}
}

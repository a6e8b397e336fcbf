package webapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// RunsPanel lists the latest requests recorded by the gateway
type RunsPanel struct {
	app.Compo
	runs    []Run
	loading bool
	error   string
}

// OnMount is called when the component is mounted
func (r *RunsPanel) OnMount(ctx app.Context) {
	r.loadRuns(ctx)
}

// Render renders the runs panel
func (r *RunsPanel) Render() app.UI {
	return app.Div().
		Class("about-section runs-panel").
		Body(
			app.H3().Text("Recent Requests"),
			app.Button().
				Class("btn-secondary").
				OnClick(r.onRefreshClick).
				Disabled(r.loading).
				Body(app.Text("Refresh")),
			r.renderStatus(),
		)
}

// renderStatus renders the runs table or status messages
func (r *RunsPanel) renderStatus() app.UI {
	if r.loading && len(r.runs) == 0 {
		return app.Div().Class("loading").Body(app.Text("Loading requests..."))
	}

	if r.error != "" {
		return app.Div().Class("error").Body(app.Text("Error: " + r.error))
	}

	if len(r.runs) == 0 {
		return app.Div().Class("info").Body(
			app.P().Text("No requests recorded yet."),
		)
	}

	return app.Table().Class("runs-table").Body(
		app.THead().Body(
			app.Tr().Body(
				app.Th().Text("When"),
				app.Th().Text("Endpoint"),
				app.Th().Text("Status"),
				app.Th().Text("Details"),
				app.Th().Text("Duration"),
			),
		),
		app.TBody().Body(
			app.Range(r.runs).Slice(func(i int) app.UI {
				return r.renderRun(r.runs[i])
			}),
		),
	)
}

// renderRun renders a single run row
func (r *RunsPanel) renderRun(run Run) app.UI {
	return app.Tr().Class("run-" + run.Status).Body(
		app.Td().Text(formatTime(run.CreatedAt)),
		app.Td().Text(run.Kind),
		app.Td().Body(
			app.Span().Class("run-status-badge run-status-"+run.Status).Text(run.Status),
			app.If(run.StatusCode != 0, func() app.UI {
				return app.Text(fmt.Sprintf(" (%d)", run.StatusCode))
			}),
		),
		app.Td().Text(runDetails(run)),
		app.Td().Text(fmt.Sprintf("%d ms", run.DurationMs)),
	)
}

// runDetails summarises what a run asked for
func runDetails(run Run) string {
	if run.Error != "" {
		return run.Error
	}
	if run.Kind != "predict" {
		return ""
	}
	details := fmt.Sprintf("%d formula", run.FormulaCount)
	if run.FormulaCount != 1 {
		details += "s"
	}
	if run.HasFile {
		details += ", CSV file"
	}
	if run.ModelType != "" {
		details += ", " + run.ModelType
	}
	return details
}

// formatTime formats an RFC 3339 time as a relative time when recent
func formatTime(timeStr string) string {
	if timeStr == "" {
		return ""
	}

	t, err := time.Parse(time.RFC3339Nano, timeStr)
	if err != nil {
		return timeStr
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	return t.Format("Jan 2, 2006 at 3:04 PM")
}

// onRefreshClick handles the refresh button click
func (r *RunsPanel) onRefreshClick(ctx app.Context, e app.Event) {
	r.loadRuns(ctx)
}

// loadRuns fetches runs from the gateway
func (r *RunsPanel) loadRuns(ctx app.Context) {
	r.loading = true
	r.error = ""

	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL("/api/runs?limit=20"))

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]
			status := response.Get("status").Int()

			response.Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				if len(args) == 0 {
					return nil
				}
				jsonStr := app.Window().Get("JSON").Call("stringify", args[0]).String()

				ctx.Dispatch(func(ctx app.Context) {
					r.loading = false
					if status < 200 || status >= 300 {
						r.error = fmt.Sprintf("Failed to load requests (status: %d)", status)
						return
					}
					var runs []Run
					if err := json.Unmarshal([]byte(jsonStr), &runs); err != nil {
						r.error = "Failed to parse requests: " + err.Error()
						return
					}
					r.runs = runs
				})
				return nil
			}))
			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				r.loading = false
				r.error = "Network error: Could not connect to server"
			})
			return nil
		}))
	})
}

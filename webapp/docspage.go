package webapp

import (
	"strings"
	"time"

	"github.com/drummonds/bandgap/store"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// endpointDoc describes one prediction service endpoint
type endpointDoc struct {
	Method      string
	Path        string
	Description string
	Fields      []string
	Response    string
}

var endpointDocs = []endpointDoc{
	{
		Method:      "GET",
		Path:        store.HealthPath,
		Description: "Reports whether the prediction service is up.",
		Response:    `{"status": "Server is up and running"}`,
	},
	{
		Method:      "POST",
		Path:        store.PredictPath,
		Description: "Predicts band gaps. The body is multipart/form-data with either formulas or a CSV file.",
		Fields: []string{
			store.FieldFormula + ": one part per chemical formula, e.g. TiO2",
			store.FieldFile + ": a CSV file with the chemical formulas in the first column",
			store.FieldModelType + ": optional, one of " + modelNames() + " (default " + store.DefaultModelType + ")",
		},
		Response: `[{"composition": "TiO2", "is_semiconductor": 1, "semiconductor_probability": 0.98, "band_gap": 2.9}]`,
	},
}

// exampleExportTime fixes the timestamp shown in the export example
var exampleExportTime = time.Date(2024, time.October, 1, 14, 30, 0, 0, time.UTC)

func modelNames() string {
	names := make([]string, 0, len(store.ModelTypes))
	for _, model := range store.ModelTypes {
		names = append(names, model.Name)
	}
	return strings.Join(names, ", ")
}

// DocsPage documents the prediction API and the CSV formats
type DocsPage struct {
	app.Compo
}

// Render renders the docs page
func (d *DocsPage) Render() app.UI {
	return app.Div().Class("docs-page").Body(
		app.H2().Text("Documentation"),
		app.Div().Class("about-section").Body(
			app.H3().Text("Prediction API"),
			app.Range(endpointDocs).Slice(func(i int) app.UI {
				return d.renderEndpoint(endpointDocs[i])
			}),
		),
		app.Div().Class("about-section").Body(
			app.H3().Text("CSV Input"),
			app.P().Text("Uploaded files must contain the chemical formulas in the first column, with a header row:"),
			app.Pre().Class("code-block").Text("composition\nBaLa2In2O7\nTiO2\nBi4Ti3O12\n"),
		),
		app.Div().Class("about-section").Body(
			app.H3().Text("CSV Export"),
			app.P().Text("Downloaded predictions have the columns "+strings.Join(store.CSVHeader, ", ")+"."),
			app.P().Text("Files are named "+store.ExportFilename("", exampleExportTime)+"."),
		),
	)
}

// renderEndpoint renders one endpoint description
func (d *DocsPage) renderEndpoint(doc endpointDoc) app.UI {
	return app.Div().Class("endpoint").Body(
		app.H4().Body(
			app.Span().Class("http-method http-method-"+strings.ToLower(doc.Method)).Text(doc.Method),
			app.Code().Text(" "+doc.Path),
		),
		app.P().Text(doc.Description),
		app.If(len(doc.Fields) > 0, func() app.UI {
			return app.Ul().Body(
				app.Range(doc.Fields).Slice(func(i int) app.UI {
					return app.Li().Text(doc.Fields[i])
				}),
			)
		}),
		app.Pre().Class("code-block").Text(doc.Response),
	)
}

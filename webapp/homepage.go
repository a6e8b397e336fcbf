package webapp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/drummonds/bandgap/store"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// DefaultFormulas pre-fills the formulas box
const DefaultFormulas = "BaLa2In2O7, TiO2, Bi4Ti3O12"

// Export filename prefixes for each input source
const (
	exportPrefixFile     = "predicted_band_gaps"
	exportPrefixFormulas = "predicted_band_gaps_formulas"
)

// HomePage lets the user pick a model, enter formulas or upload a CSV file
// and shows the predicted band gaps
type HomePage struct {
	app.Compo
	Store *store.Store

	modelType    string
	formulas     string
	file         *store.FileField
	fileError    string
	exportPrefix string
	state        store.State
	unsubscribe  func()
}

// OnInit sets the form defaults
func (h *HomePage) OnInit() {
	h.modelType = store.DefaultModelType
	h.formulas = DefaultFormulas
	h.exportPrefix = exportPrefixFormulas
}

// OnMount subscribes to the store
func (h *HomePage) OnMount(ctx app.Context) {
	h.unsubscribe = observe(ctx, h.Store, func(state store.State) {
		h.state = state
	})
}

// OnDismount is called when the component is unmounted
func (h *HomePage) OnDismount() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
}

// selectedModel returns the chosen model, falling back to the default
func (h *HomePage) selectedModel() store.ModelType {
	if model, ok := store.LookupModelType(h.modelType); ok {
		return model
	}
	model, _ := store.LookupModelType(store.DefaultModelType)
	return model
}

// formulaPayload builds the request for the formulas box
func (h *HomePage) formulaPayload() store.PredictPayload {
	return store.PredictPayload{
		Formulas:  store.ParseFormulas(h.formulas),
		ModelType: h.selectedModel().Name,
	}
}

// filePayload builds the request for the uploaded file
func (h *HomePage) filePayload() store.PredictPayload {
	return store.PredictPayload{
		File:      h.file,
		ModelType: h.selectedModel().Name,
	}
}

// predict dispatches PredictBandGap, the outcome arrives through the store
func (h *HomePage) predict(ctx app.Context, payload store.PredictPayload, prefix string) {
	if h.Store == nil || payload.IsEmpty() {
		return
	}
	h.exportPrefix = prefix
	ctx.Async(func() {
		h.Store.PredictBandGap(context.Background(), payload)
	})
}

func (h *HomePage) onModelSelect(name string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		h.modelType = name
	}
}

func (h *HomePage) onFormulasInput(ctx app.Context, e app.Event) {
	h.formulas = ctx.JSSrc().Get("value").String()
}

func (h *HomePage) onFileChange(ctx app.Context, e app.Event) {
	files := ctx.JSSrc().Get("files")
	if !files.Truthy() || files.Length() == 0 {
		h.file = nil
		return
	}
	selected := files.Index(0)
	name := selected.Get("name").String()
	h.fileError = ""

	selected.Call("text").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
		if len(args) == 0 {
			return nil
		}
		content := args[0].String()
		ctx.Dispatch(func(ctx app.Context) {
			h.file = &store.FileField{Name: name, Content: []byte(content)}
		})
		return nil
	})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
		ctx.Dispatch(func(ctx app.Context) {
			h.file = nil
			h.fileError = "Error reading the file: " + name
		})
		return nil
	}))
}

func (h *HomePage) onPredictFile(ctx app.Context, e app.Event) {
	h.predict(ctx, h.filePayload(), exportPrefixFile)
}

func (h *HomePage) onPredictFormulas(ctx app.Context, e app.Event) {
	h.predict(ctx, h.formulaPayload(), exportPrefixFormulas)
}

// Render renders the home page
func (h *HomePage) Render() app.UI {
	model := h.selectedModel()

	return app.Div().
		Class("home-page").
		Body(
			app.H2().Text("BandGap-ml: Band Gap Prediction"),
			app.P().Text("This app allows you to predict the band gap of materials either by uploading a CSV file or by entering chemical formulas."),

			app.Div().Class("predict-section").Body(
				app.H3().Text("Select Available Trained Model Type For Prediction:"),
				app.Div().Class("model-picker").Body(h.renderModelButtons()...),
				app.Div().Class("info").Body(
					app.Text("Currently using: "),
					app.Strong().Text(model.Name),
				),
				app.P().Class("model-description").Text(model.Description),
			),

			app.Div().Class("predict-section").Body(
				app.H3().Text("Upload CSV file with chemical formulas written in the first column."),
				app.Input().
					Type("file").
					Accept(".csv").
					OnChange(h.onFileChange),
				app.If(h.fileError != "", func() app.UI {
					return app.Div().Class("error").Text(h.fileError)
				}),
				app.Button().
					Class("btn-primary").
					Disabled(h.state.IsProcessing || h.file == nil).
					OnClick(h.onPredictFile).
					Text("Predict Band Gaps from File"),
			),

			app.Div().Class("predict-section").Body(
				app.H3().Text("Or, enter chemical formulas manually:"),
				app.Label().For("formulas").Text("Enter one or more chemical formulas (separate by commas):"),
				app.Textarea().
					ID("formulas").
					Class("formulas-input").
					Rows(3).
					Text(h.formulas).
					OnInput(h.onFormulasInput),
				app.Button().
					Class("btn-primary").
					Disabled(h.state.IsProcessing || len(store.ParseFormulas(h.formulas)) == 0).
					OnClick(h.onPredictFormulas).
					Text("Predict Band Gaps from Formulas"),
			),

			h.renderStatus(),
		)
}

// renderModelButtons renders one button per model type
func (h *HomePage) renderModelButtons() []app.UI {
	buttons := make([]app.UI, 0, len(store.ModelTypes))
	for _, model := range store.ModelTypes {
		class := "model-button"
		if model.Name == h.selectedModel().Name {
			class += " model-button-active"
		}
		buttons = append(buttons, app.Button().
			Class(class).
			OnClick(h.onModelSelect(model.Name)).
			Text(model.Label))
	}
	return buttons
}

// renderStatus renders processing, error or results
func (h *HomePage) renderStatus() app.UI {
	if h.state.IsProcessing {
		return app.Div().Class("loading").Body(app.Text("Predicting band gaps..."))
	}

	if h.state.HasError() {
		return app.Div().Class("error").Body(app.Text("Error: " + h.state.Error))
	}

	if h.state.Predictions.IsEmpty() {
		return app.Div().Class("no-results").Body(app.Text("No predictions yet."))
	}

	results, err := h.state.Predictions.Results()
	if err != nil {
		// not the usual table shape, show what the service sent
		return app.Div().Class("results").Body(
			app.H3().Text("Predictions:"),
			app.Pre().Class("results-raw").Text(h.state.Predictions.String()),
		)
	}

	return app.Div().Class("results").Body(
		app.H3().Text("Predictions:"),
		h.renderResultsTable(results),
		h.renderDownloadLink(),
	)
}

// renderResultsTable renders one row per predicted composition
func (h *HomePage) renderResultsTable(results []store.PredictionResult) app.UI {
	return app.Table().Class("results-table").Body(
		app.THead().Body(
			app.Tr().Body(
				app.Th().Text("Composition"),
				app.Th().Text("Semiconductor"),
				app.Th().Text("Semiconductor probability"),
				app.Th().Text("Band gap (eV)"),
			),
		),
		app.TBody().Body(
			app.Range(results).Slice(func(i int) app.UI {
				result := results[i]
				return app.Tr().Body(
					app.Td().Text(result.Composition),
					app.Td().Text(formatSemiconductor(result.IsSemiconductor)),
					app.Td().Text(strconv.FormatFloat(result.SemiconductorProbability, 'f', 3, 64)),
					app.Td().Text(strconv.FormatFloat(result.BandGap, 'f', 3, 64)),
				)
			}),
		),
	)
}

// renderDownloadLink offers the current predictions as a CSV file
func (h *HomePage) renderDownloadLink() app.UI {
	href, err := csvHref(h.state.Predictions)
	if err != nil {
		return app.Div().Class("error").Text(fmt.Sprintf("Unable to export predictions: %v", err))
	}
	return app.A().
		Class("btn-secondary download-link").
		Href(href).
		Attr("download", store.ExportFilename(h.exportPrefix, time.Now())).
		Text("Download Predictions as CSV")
}

// csvHref renders predictions as a data URL
func csvHref(predictions store.Predictions) (string, error) {
	data, err := predictions.CSV()
	if err != nil {
		return "", err
	}
	return "data:text/csv;charset=utf-8," + url.PathEscape(string(data)), nil
}

func formatSemiconductor(isSemiconductor int) string {
	if isSemiconductor == 1 {
		return "Yes"
	}
	return "No"
}

//go:build js && wasm

package main

import (
	"github.com/drummonds/bandgap/store"
	"github.com/drummonds/bandgap/webapp"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

func main() {
	// One store for the lifetime of the page, shared by every route
	st := store.New(webapp.ClientStoreConfig())
	webapp.RegisterRoutes(st)

	// This main function is for the WASM build only
	// It initializes the go-app when running in the browser
	app.RunWhenOnBrowser()
}

package webapp

import (
	"github.com/drummonds/bandgap/store"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// observe applies the current state of st, then every later state, on the
// UI goroutine. The returned function stops observing.
func observe(ctx app.Context, st *store.Store, apply func(store.State)) func() {
	if st == nil {
		return func() {}
	}
	apply(st.Snapshot())
	return st.Subscribe(func(state store.State) {
		ctx.Dispatch(func(ctx app.Context) {
			apply(state)
		})
	})
}

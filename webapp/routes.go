package webapp

// Route binds a view name to a path
type Route struct {
	Name  string
	Path  string
	Label string
}

// Route names
const (
	RouteHome  = "Home"
	RouteAbout = "About"
	RouteDocs  = "Docs"
)

// Routes is the complete route table. Paths match exactly.
var Routes = []Route{
	{Name: RouteHome, Path: "/", Label: "Predict"},
	{Name: RouteAbout, Path: "/about", Label: "About"},
	{Name: RouteDocs, Path: "/docs", Label: "Docs"},
}

// Resolve returns the route registered for path
func Resolve(path string) (Route, bool) {
	for _, route := range Routes {
		if route.Path == path {
			return route, true
		}
	}
	return Route{}, false
}

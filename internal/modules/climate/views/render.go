package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
)

var routesTmpl *template.Template

// loadTemplatesFromFS parses every page template under dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	routesTmpl, err = template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Route is one line of the landing page.
type Route struct {
	Path        string
	Description string
}

type RoutesData struct {
	Title  string
	Routes []Route
}

// DefaultRoutes lists the public API in the order it is documented.
func DefaultRoutes() *RoutesData {
	return &RoutesData{
		Title: "Hawaii Climate API",
		Routes: []Route{
			{Path: "/api/v1.0/precipitation", Description: "precipitation by date over the last year of data"},
			{Path: "/api/v1.0/stations", Description: "station codes"},
			{Path: "/api/v1.0/tobs", Description: "temperatures of the most active station over the last year of data"},
			{Path: "/api/v1.0/<start>", Description: "TMIN, TMAX and TAVG from start (YYYY-MM-DD)"},
			{Path: "/api/v1.0/<start>/<end>", Description: "TMIN, TMAX and TAVG between start and end inclusive"},
			{Path: "/api/v1.0/summary", Description: "dataset summary"},
		},
	}
}

func RenderRoutes(w io.Writer, data *RoutesData) error {
	if routesTmpl == nil {
		return errors.New("routes template not loaded: call views.LoadTemplates during startup")
	}
	return routesTmpl.ExecuteTemplate(w, "routes.html", data)
}

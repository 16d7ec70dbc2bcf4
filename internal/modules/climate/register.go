package climate

import (
	"net/http"

	"surfsup-server/internal/modules/climate/controller"
	"surfsup-server/internal/modules/climate/service"
)

func RegisterFeature(mux *http.ServeMux, svc *service.Service) {
	climateController := controller.NewClimateController(svc)
	climateController.RegisterRoutes(mux)
}

package restapi

import (
	v1 "github.com/gdg-cloud-hanoi/gallery-optimizer/internal/controller/restapi/v1"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewRouter(app *fiber.App, gallery usecase.GalleryUseCase, l logger.Interface) {
	apiV1Group := app.Group("/v1")
	{
		v1.NewGalleryRoutes(apiV1Group, gallery, l)
	}
}

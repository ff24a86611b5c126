package v1

import (
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewGalleryRoutes(apiV1Group fiber.Router, gallery usecase.GalleryUseCase, l logger.Interface) {
	r := &V1{gallery: gallery, logger: l}

	{
		apiV1Group.Get("/gallery", r.listRecords)
		apiV1Group.Get("/gallery/:name", r.getRecord)
	}
}

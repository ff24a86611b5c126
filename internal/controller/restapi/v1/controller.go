package v1

import (
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
)

type V1 struct {
	gallery usecase.GalleryUseCase
	logger  logger.Interface
}

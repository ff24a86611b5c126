package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/controller/restapi/v1/response"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

const (
	_defaultListLimit = 50
	_maxListLimit     = 200
)

func (r *V1) listRecords(ctx *fiber.Ctx) error {
	// 1. limit/offset validation
	limit := _defaultListLimit
	if limitStr := ctx.Query("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 {
			return errorResponse(ctx, http.StatusBadRequest, "limit must be a positive number")
		}
		limit = v
	}
	if limit > _maxListLimit {
		limit = _maxListLimit
	}

	offset := 0
	if offsetStr := ctx.Query("offset"); offsetStr != "" {
		v, err := strconv.Atoi(offsetStr)
		if err != nil || v < 0 {
			return errorResponse(ctx, http.StatusBadRequest, "offset must be a non-negative number")
		}
		offset = v
	}

	// 2. fetch
	records, err := r.gallery.ListRecords(ctx.UserContext(), limit, offset)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listRecords")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	// 3. response
	resp := response.GalleryList{
		Records: make([]response.GalleryRecord, 0, len(records)),
		Limit:   limit,
		Offset:  offset,
	}
	for _, record := range records {
		resp.Records = append(resp.Records, toGalleryResponse(record))
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}

func (r *V1) getRecord(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	if name == "" {
		return errorResponse(ctx, http.StatusBadRequest, "invalid name")
	}

	record, err := r.gallery.GetRecord(ctx.UserContext(), name)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "record not found")
		}
		r.logger.Error(err, "restapi - v1 - getRecord")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(toGalleryResponse(record))
}

func toGalleryResponse(record *entity.GalleryRecord) response.GalleryRecord {
	resp := response.GalleryRecord{
		Name:          record.Name,
		OriginalName:  record.OriginalName,
		OptimizedName: record.OptimizedName,
		PreviewName:   record.PreviewName,
		Bucket:        record.OptimizedBucket,
		OriginalSize:  record.OriginalSize,
		ContentType:   record.ContentType,
		Status:        string(record.Status),
		Description:   record.Description,
		QA:            make([]response.QAPair, 0, len(record.QA)),
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
	}

	for _, qa := range record.QA {
		resp.QA = append(resp.QA, response.QAPair{Question: qa.Question, Answer: qa.Answer})
	}

	if record.FinalizedAt != nil {
		resp.FinalizedAt = record.FinalizedAt.Format(time.RFC3339)
	}

	return resp
}

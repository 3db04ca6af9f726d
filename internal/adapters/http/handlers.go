package http

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
	"github.com/ibaizabal/floodwatch/internal/core/usecases"
)

// coordinateRequest is the body of a coordinate analysis call. Pointers
// distinguish "missing" from a legitimate zero value (0,0 is in the Gulf of
// Guinea, not an absent field).
type coordinateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// serviceError maps usecase errors onto HTTP status codes.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecases.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrImageTooLarge):
		return errPayloadTooLarge(c, err.Error())
	case errors.Is(err, usecases.ErrDuplicateWatchpoint):
		return errConflict(c, err.Error())
	case errors.Is(err, usecases.ErrUpstream):
		return errBadGateway(c, "flood analysis is temporarily unavailable")
	}
	return errInternal(c, err.Error())
}

// AnalyzeCoordinatesHandler runs a flood-risk analysis for a coordinate pair.
func AnalyzeCoordinatesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req coordinateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: latitude and longitude must be numbers")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}

		point := domain.GeoPoint{Lat: *req.Latitude, Lon: *req.Longitude}
		result, err := deps.Assessments.AssessCoordinates(c.UserContext(), point)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("coordinate analysis failed",
				"lat", point.Lat, "lon", point.Lon, "error", err)
			return serviceError(c, err)
		}
		return c.JSON(result)
	}
}

// AnalyzeImageHandler runs a flood-risk analysis on an uploaded terrain photo.
// Accepts multipart form field "file"; JPEG and PNG only, sniffed from content.
func AnalyzeImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return errBadRequest(c, "multipart field 'file' with an image is required")
		}

		f, err := fh.Open()
		if err != nil {
			return errBadRequest(c, "could not read uploaded file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return errBadRequest(c, "could not read uploaded file")
		}

		result, err := deps.Assessments.AssessImage(c.UserContext(), data)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	}
}

// RecentAssessmentsHandler returns archived assessments, newest first.
func RecentAssessmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.History == nil {
			return errInternal(c, "archive not available")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		items, total, err := deps.History.ListRecent(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// GetAssessmentHandler returns a single archived assessment by ID.
func GetAssessmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "assessment id is required")
		}
		if deps.History == nil {
			return errInternal(c, "archive not available")
		}

		a, err := deps.History.GetByID(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, "assessment not found")
		}
		return c.JSON(a)
	}
}

// watchpointRequest is the body for registering a watchpoint.
type watchpointRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateWatchpointHandler registers a location for periodic re-assessment.
func CreateWatchpointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Watchpoints == nil {
			return errInternal(c, "watchpoints not available")
		}
		var req watchpointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}

		wp, err := deps.Watchpoints.Create(c.UserContext(), req.Name,
			domain.GeoPoint{Lat: *req.Latitude, Lon: *req.Longitude})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(201).JSON(wp)
	}
}

// ListWatchpointsHandler returns all registered watchpoints.
func ListWatchpointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Watchpoints == nil {
			return errInternal(c, "watchpoints not available")
		}
		wps, err := deps.Watchpoints.List(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		if wps == nil {
			wps = []domain.Watchpoint{}
		}
		return c.JSON(wps)
	}
}

// DeleteWatchpointHandler removes a watchpoint.
func DeleteWatchpointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Watchpoints == nil {
			return errInternal(c, "watchpoints not available")
		}
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "watchpoint id is required")
		}
		if err := deps.Watchpoints.Delete(c.UserContext(), id); err != nil {
			return errNotFound(c, "watchpoint not found")
		}
		return c.SendStatus(204)
	}
}

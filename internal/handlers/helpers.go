package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/friendcircle/backend/internal/middleware"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/internal/services"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

// toHTTPError maps a service or repository error onto an echo.HTTPError that
// keeps the error's reason as its message.
func toHTTPError(err error) error {
	var appErr *services.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case services.KindNotFound:
			return echo.NewHTTPError(http.StatusNotFound, appErr.Message)
		case services.KindInvalidOperation:
			return echo.NewHTTPError(http.StatusBadRequest, appErr.Message)
		case services.KindConflict:
			return echo.NewHTTPError(http.StatusConflict, appErr.Message)
		case services.KindUnauthorized:
			return echo.NewHTTPError(http.StatusForbidden, appErr.Message)
		}
		logger.Error("storage failure", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, appErr.Message)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Resource not found")
	}
	logger.Error("unexpected failure", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

func currentUserID(c echo.Context) (string, error) {
	id := middleware.UserID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// pageParams reads page and limit, 1-based, falling back to defaultLimit when
// limit is missing or above 50.
func pageParams(c echo.Context, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = defaultLimit
	}
	return page, limit
}

func pageMeta(page, limit int, totalItems int64) echo.Map {
	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      totalItems,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes data inside the API envelope with the given status.
func DataResponse(c echo.Context, status int, data any) error {
	return c.JSON(status, APIResponse{Status: status, Message: http.StatusText(status), Data: data})
}

func SuccessResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusOK, data)
}

func CreatedResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusCreated, data)
}

// ListResponse writes rows with their count. limit is the page size the
// caller asked for, zero when unbounded.
func ListResponse(c echo.Context, rows any, total, limit int) error {
	return SuccessResponse(c, ListData{Rows: rows, Total: total, Truncated: limit > 0 && total >= limit})
}

// InvalidRequestResponse writes a 400 carrying the field errors.
func InvalidRequestResponse(c echo.Context, errs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

// AppErrorResponse writes err with the status of the AppError it wraps, or
// a generic 500 when it wraps none.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("internal error").WithError(err)
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}

package http

import "github.com/labstack/echo/v4"

// OptionalQuery reads optional numeric query parameters. An absent
// parameter yields nil; a malformed one is recorded in Errs.
type OptionalQuery struct {
	c    echo.Context
	Errs []ValidationError
}

func NewOptionalQuery(c echo.Context) *OptionalQuery {
	return &OptionalQuery{c: c}
}

func (q *OptionalQuery) Float(name string) *float64 {
	if q.c.QueryParam(name) == "" {
		return nil
	}
	var v float64
	if err := echo.QueryParamsBinder(q.c).Float64(name, &v).BindError(); err != nil {
		q.fail(name, name+" must be a number")
		return nil
	}
	return &v
}

func (q *OptionalQuery) Int(name string) *int {
	if q.c.QueryParam(name) == "" {
		return nil
	}
	var v int
	if err := echo.QueryParamsBinder(q.c).Int(name, &v).BindError(); err != nil {
		q.fail(name, name+" must be an integer")
		return nil
	}
	return &v
}

func (q *OptionalQuery) fail(name, msg string) {
	q.Errs = append(q.Errs, ValidationError{Code: "ERR_NUMBER", Field: name, Message: msg})
}

package common

import (
	"github.com/labstack/echo/v4"
)

// SuccessResponse is the envelope every successful endpoint returns.
type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// JSONSuccess writes payload wrapped in the success envelope.
func JSONSuccess(c echo.Context, code int, data any) error {
	return c.JSON(code, SuccessResponse{Status: "success", Data: data})
}

package response

import "github.com/gin-gonic/gin"

type Error struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Extras  string `json:"extras"`
}

func (e Error) Error() string {
	return e.Extras
}

func NewError(success bool, code int, message string) Error {
	return Error{
		Success: success,
		Code:    code,
		Extras:  message,
	}
}

// Abort writes e as the response, in the same envelope as ErrorResponse.
func (e Error) Abort(c *gin.Context) {
	ErrorResponse(c, e.Code, e.Extras)
	c.Abort()
}

package validation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// BindAndValidate decodes the JSON body into out and runs the struct rules.
// On failure it writes the 400 itself; the handler only has to return.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return err
	}

	if err := v.Struct(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": fieldErrors(err),
		})
		return err
	}
	return nil
}

// fieldErrors flattens validator output into field name → failed rule,
// keeping Go type paths off the wire.
func fieldErrors(err error) map[string]string {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"request": err.Error()}
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		reason := "failed rule " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		out[fe.Field()] = reason
	}
	return out
}

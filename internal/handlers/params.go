package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"rccafe/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// pathID parses the named path parameter as a positive id and writes a 400 when it is not one.
func pathID(c *gin.Context, name, code string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    code,
			Message: "Invalid identifier",
			Details: c.Param(name),
		})
		return 0, false
	}
	return uint(id), true
}

// findOr loads the first row matching conds into dest. A missing row answers status with
// notFound, any other failure answers 500.
func findOr(c *gin.Context, q *gorm.DB, dest interface{}, status int, notFound response.ErrorResponse, conds ...interface{}) bool {
	err := q.First(dest, conds...).Error
	if err == nil {
		return true
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(status, notFound)
		return false
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg("lookup failed")
	c.JSON(http.StatusInternalServerError, response.DBError("Could not load record"))
	return false
}

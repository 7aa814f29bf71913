package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"civic311-be/models"

	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy to a status code. Unexpected errors are
// attached to the context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrOutOfJurisdiction):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrRateLimited):
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// pathID parses the :name path parameter as a positive integer id.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// queryInt64 reads an optional integer query parameter.
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New("invalid " + name)
	}
	return &v, nil
}

// pageWindow reads skip and limit. page is accepted as an alternative to skip.
func pageWindow(c *gin.Context) (skip, limit int64, err error) {
	if v, err := queryInt64(c, "limit"); err != nil {
		return 0, 0, err
	} else if v != nil {
		limit = *v
	}
	if v, err := queryInt64(c, "skip"); err != nil {
		return 0, 0, err
	} else if v != nil {
		skip = *v
	} else if p, err := queryInt64(c, "page"); err != nil {
		return 0, 0, err
	} else if p != nil && *p > 1 && limit > 0 {
		skip = (*p - 1) * limit
	}
	return skip, limit, nil
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velarchat/velar/internal/cerr"
	"github.com/velarchat/velar/internal/store"
)

// classify turns a store failure into a coded error. Anything
// unrecognized is a persistence failure local to this request.
func classify(err error) *cerr.Error {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return cerr.NotFound("User not found")
	case errors.Is(err, store.ErrDuplicateUsername):
		return cerr.Duplicate("Username already taken")
	case errors.Is(err, store.ErrMessageNotFound):
		return cerr.NotFound("Message not found")
	default:
		return cerr.Persistence("Storage failure", err)
	}
}

func httpStatus(code cerr.Code) int {
	switch code {
	case cerr.CodeInvalid:
		return http.StatusBadRequest
	case cerr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case cerr.CodeUnauthorized:
		return http.StatusForbidden
	case cerr.CodeNotFound:
		return http.StatusNotFound
	case cerr.CodeDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// storeError maps store errors to HTTP responses. The wrapped cause
// never reaches the client; only the code and public message do.
func storeError(c *gin.Context, err error) {
	e := classify(err)
	c.JSON(httpStatus(cerr.CodeOf(e)), gin.H{"error": e.Message, "code": e.Code})
}

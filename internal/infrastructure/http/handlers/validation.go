package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodeAndValidate parses the JSON body into dst and runs its validate
// tags. Returns false after writing the 400 response.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, verrs[0].Field()+" is required")
			return false
		}
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "validation failed")
		return false
	}
	return true
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/lumiereskin/storefront/internal/api/middleware"
	appErrors "github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/models"
	"github.com/lumiereskin/storefront/internal/utils"
	"github.com/lumiereskin/storefront/internal/utils/response"
)

// claimsOrFail extracts the authenticated customer or writes a 401.
func claimsOrFail(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, appErrors.UnauthorizedError("Authentication required"))

		return nil, false
	}

	return claims, true
}

// decodeAndValidate reads the JSON body into dest and runs struct
// validation, writing the error response itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dest any) bool {
	if err := utils.DecodeJSONBody(r, dest); err != nil {
		response.Error(w, appErrors.BadRequestError("Invalid request body").WithError(err))

		return false
	}

	if err := utils.ValidateStruct(validate, dest); err != nil {
		var validationErrs validator.ValidationErrors

		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
		} else {
			response.Error(w, appErrors.ValidationError("Validation failed").WithError(err))
		}

		return false
	}

	return true
}

// pagination parses page/size query params with sane defaults.
func pagination(r *http.Request) (page, size int) {
	page, size = 1, 20

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s > 0 && s <= 100 {
		size = s
	}

	return page, size
}

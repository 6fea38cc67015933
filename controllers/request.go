package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"agri-market/middleware"
	"agri-market/models"
	"agri-market/services"
	"agri-market/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBodyBytes caps every JSON request body
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads the body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.InvalidInput("Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			return utils.InvalidInput(validationMessage(vErrs[0]))
		}
		return utils.InvalidInput("Invalid request body")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " value missing"
	case "min", "gte":
		return fe.Field() + " value is less than " + fe.Param()
	case "max", "lte":
		return fe.Field() + " value is greater than " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "email":
		return fe.Field() + " is not a valid email address"
	default:
		return fe.Field() + " is invalid"
	}
}

// pathID parses the named mux variable as an object id.
func pathID(r *http.Request, name, what string) (primitive.ObjectID, error) {
	return services.ParseID(mux.Vars(r)[name], what)
}

// caller returns the authenticated identity of the request.
func caller(r *http.Request) (models.Identity, error) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return models.Identity{}, utils.Unauthorized("Token is not valid")
	}
	return id, nil
}

// selfOrAdmin allows the request when the caller is userID or an admin.
func selfOrAdmin(r *http.Request, userID primitive.ObjectID) (models.Identity, error) {
	id, err := caller(r)
	if err != nil {
		return id, err
	}
	if !id.IsAdmin() && !id.Is(userID) {
		return id, utils.Forbidden("User not authorized")
	}
	return id, nil
}

type msgResponse struct {
	Msg string `json:"msg"`
}

type messageKeyResponse struct {
	MessageKey string `json:"messageKey"`
}

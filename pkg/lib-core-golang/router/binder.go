package router

import (
	"net/http"
	"strconv"
	"time"

	uuid "github.com/satori/go.uuid"
)

// RequestParamType represents type of a request parameter
type RequestParamType string

const (
	// PathParam is a request path parameter type
	PathParam RequestParamType = "path"

	// QueryParam is a request query parameter type
	QueryParam RequestParamType = "query"
)

// ParamsBinder binds request params to values. Binding stops on
// a first bad param, the error is reported by Validate
type ParamsBinder struct {
	req            *http.Request
	err            error
	validator      *structValidator
	pathParamValue pathParamValueFunc
}

func newParamsBinder(req *http.Request, v *structValidator, pathParamValue pathParamValueFunc) *ParamsBinder {
	if v == nil {
		v = newStructValidator(nil)
	}
	return &ParamsBinder{req: req, validator: v, pathParamValue: pathParamValue}
}

// PathParam binds param from request path
func (b *ParamsBinder) PathParam(name string) *ParamBinder {
	return &ParamBinder{paramType: PathParam, name: name, rawValue: b.pathParamValue(b.req, name), binder: b}
}

// QueryParam binds param from request query
func (b *ParamsBinder) QueryParam(name string) *ParamBinder {
	return &ParamBinder{paramType: QueryParam, name: name, rawValue: b.req.URL.Query().Get(name), binder: b}
}

// Validate returns a bind error if any. Otherwise exposed fields of the target
// are validated, see https://godoc.org/gopkg.in/go-playground/validator.v9.
// Nil target means nothing to validate
func (b *ParamsBinder) Validate(target interface{}) error {
	if b.err != nil || target == nil {
		return b.err
	}
	return b.validator.validateStruct(b.req.Context(), target)
}

// ParamBinder binds particular param. Empty values leave receivers untouched
type ParamBinder struct {
	paramType RequestParamType
	name      string
	rawValue  string
	binder    *ParamsBinder
}

func (pb *ParamBinder) bind(kind string, assign func(raw string) error) *ParamsBinder {
	b := pb.binder
	if b.err != nil || pb.rawValue == "" {
		return b
	}
	if err := assign(pb.rawValue); err != nil {
		logger.WithError(err).Info(b.req.Context(), "Failed to parse %v %v param %v", kind, pb.paramType, pb.name)
		b.err = ParamValidationError(pb.paramType, pb.name)
	}
	return b
}

// String binds param as is
func (pb *ParamBinder) String(receiver *string) *ParamsBinder {
	return pb.bind("string", func(raw string) error {
		*receiver = raw
		return nil
	})
}

// Int binds param as int
func (pb *ParamBinder) Int(receiver *int) *ParamsBinder {
	return pb.bind("int", func(raw string) error {
		value, err := strconv.Atoi(raw)
		if err == nil {
			*receiver = value
		}
		return err
	})
}

// UUID binds param as uuid
func (pb *ParamBinder) UUID(receiver *uuid.UUID) *ParamsBinder {
	return pb.bind("uuid", func(raw string) error {
		value, err := uuid.FromString(raw)
		if err == nil {
			*receiver = value
		}
		return err
	})
}

// Time binds param as RFC3339 time
func (pb *ParamBinder) Time(receiver *time.Time) *ParamsBinder {
	return pb.bind("time", func(raw string) error {
		value, err := time.Parse(time.RFC3339, raw)
		if err == nil {
			*receiver = value
		}
		return err
	})
}

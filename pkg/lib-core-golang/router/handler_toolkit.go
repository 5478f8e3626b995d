package router

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// maxPayloadBytes limits size of a json payload a handler can bind
const maxPayloadBytes = 1 << 20

// ResponseDecorator is applied to a response before the body is written
type ResponseDecorator func(w http.ResponseWriter) error

// HandlerToolkit is a collection of tools to process a request and build a response
type HandlerToolkit interface {
	BindParams() *ParamsBinder

	// BindPayload decodes json body into the receiver and validates it
	BindPayload(receiver interface{}) error

	// WriteJSON writes the payload as json. Decorators like
	// WithStatus are applied before the body is written
	WriteJSON(payload interface{}, decorators ...ResponseDecorator) error

	// WithStatus sets the response status
	WithStatus(status int) ResponseDecorator

	// WithHeader sets a response header
	WithHeader(name, value string) ResponseDecorator
}

// ToolkitHandlerFunc is a handler that gets a toolkit and may fail.
// HTTPError failures are sent as is, any other error is sent as 500
type ToolkitHandlerFunc func(w http.ResponseWriter, req *http.Request, h HandlerToolkit) error

// ServeHTTP allows ToolkitHandlerFunc to be used in place of the http.Handler
func (f ToolkitHandlerFunc) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	toolkit := &handlerToolkit{
		request:        req,
		responseWriter: w,
		validator:      ctx.Value(validatorRequestKey).(*structValidator),
		pathParamValue: ctx.Value(pathParamValueFuncKey).(pathParamValueFunc),
	}
	err := f(w, req, toolkit)
	if err == nil {
		return
	}
	httpErr := newHTTPErrorFromError(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logger.WithError(err).Error(ctx, "Failed to process request")
	} else {
		logger.WithError(err).Info(ctx, "Request rejected: %v", httpErr.Code)
	}
	httpErr.Send(w)
}

type handlerToolkit struct {
	request        *http.Request
	responseWriter http.ResponseWriter
	validator      *structValidator
	pathParamValue pathParamValueFunc
}

func (h *handlerToolkit) BindParams() *ParamsBinder {
	return newParamsBinder(h.request, h.validator, h.pathParamValue)
}

func (h *handlerToolkit) BindPayload(receiver interface{}) error {
	ctx := h.request.Context()
	body := http.MaxBytesReader(h.responseWriter, h.request.Body, maxPayloadBytes)
	if err := json.NewDecoder(body).Decode(receiver); err != nil {
		logger.WithError(err).Info(ctx, "Failed to decode payload")
		if errors.Is(err, io.EOF) {
			return BadRequestError("Payload is required")
		}
		return BadRequestError("Failed to decode payload: " + err.Error())
	}
	if _, isMap := receiver.(*map[string]interface{}); isMap {
		return nil
	}
	return h.validator.validateStruct(ctx, receiver)
}

func (h *handlerToolkit) WriteJSON(payload interface{}, decorators ...ResponseDecorator) error {
	// Headers must be set before a status decorator sends them
	h.responseWriter.Header().Set("content-type", "application/json")
	for _, decorate := range decorators {
		if err := decorate(h.responseWriter); err != nil {
			return err
		}
	}
	return json.NewEncoder(h.responseWriter).Encode(payload)
}

func (h *handlerToolkit) WithStatus(status int) ResponseDecorator {
	return func(w http.ResponseWriter) error {
		w.WriteHeader(status)
		return nil
	}
}

func (h *handlerToolkit) WithHeader(name, value string) ResponseDecorator {
	return func(w http.ResponseWriter) error {
		w.Header().Set(name, value)
		return nil
	}
}

package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"stayfinder/shared/constant"
	"stayfinder/shared/failure"
	"stayfinder/shared/logger"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

type Error struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type Message struct {
	Message string `json:"message"`
}

func WithMessage(writer http.ResponseWriter, code int, message string) {
	write(writer, code, Message{Message: message})
}

func WithJSON(writer http.ResponseWriter, code int, payload any) {
	write(writer, code, Data[any]{Data: &payload})
}

// WithError maps err to its failure code. Anything that is not a
// failure.Failure is logged and reported as a bare 500 so internals never
// reach the client.
func WithError(writer http.ResponseWriter, err error) {
	code := failure.GetCode(err)
	requestID := writer.Header().Get(constant.RequestHeaderRequestID)

	body := Error{Error: err.Error(), RequestID: requestID}

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", requestID).Int("status", code).Msg("request failed")

		body.Error = http.StatusText(code)
	}

	write(writer, code, body)
}

// WithFile streams a generated document, e.g. a booking receipt.
func WithFile(writer http.ResponseWriter, contentType, filename string, data []byte) {
	writer.Header().Set(constant.RequestHeaderContentType, contentType)
	writer.Header().Set(constant.RequestHeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	writer.Header().Set(constant.RequestHeaderContentLength, strconv.Itoa(len(data)))
	writer.WriteHeader(http.StatusOK)

	if _, err := writer.Write(data); err != nil {
		logger.ErrorWithStack(err)
	}
}

func WithRequestLimitExceeded(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func write(writer http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)
		writer.WriteHeader(http.StatusInternalServerError)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if _, err := writer.Write(body); err != nil {
		logger.ErrorWithStack(err)
	}
}

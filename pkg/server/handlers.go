package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dasmlab/ailocalize/pkg/plugin"
	"github.com/dasmlab/ailocalize/pkg/service"
)

// maxBodyBytes bounds request bodies read by the JSON handlers.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string        `json:"error"`
	Details []fieldDetail `json:"details,omitempty"`
}

type fieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PluginHandlers exposes svc as the handlers passed to plugin registration.
func PluginHandlers(svc *service.TranslationService, logger *logrus.Logger) plugin.Handlers {
	if logger == nil {
		logger = logrus.New()
	}

	return plugin.Handlers{
		TranslateBulk: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req service.BulkRequest
			if err := decodeBody(r, &req); err != nil {
				writeError(w, logger, err)
				return
			}
			res, err := svc.TranslateBulk(r.Context(), req)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, logger, http.StatusOK, res)
		}),
		TranslateField: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req service.FieldRequest
			if err := decodeBody(r, &req); err != nil {
				writeError(w, logger, err)
				return
			}
			res, err := svc.TranslateField(r.Context(), req)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, logger, http.StatusOK, res)
		}),
		SupportedLanguages: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := svc.SupportedLanguages(r.Context())
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, logger, http.StatusOK, res)
		}),
	}
}

// decodeBody reads a JSON object into v. Any failure is reported as an
// invalid request.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return service.InvalidRequest(&errdetails.BadRequest_FieldViolation{
			Field:       "body",
			Description: fmt.Sprintf("read body: %v", err),
		})
	}
	if err := json.Unmarshal(body, v); err != nil {
		return service.InvalidRequest(&errdetails.BadRequest_FieldViolation{
			Field:       "body",
			Description: err.Error(),
		})
	}
	return nil
}

// httpStatus maps a status code onto the HTTP status returned to clients.
func httpStatus(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	st := status.Convert(err)
	body := errorBody{Error: st.Message()}
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, v := range br.GetFieldViolations() {
			body.Details = append(body.Details, fieldDetail{Field: v.GetField(), Message: v.GetDescription()})
		}
	}
	writeJSON(w, logger, httpStatus(st.Code()), body)
}

func writeJSON(w http.ResponseWriter, logger *logrus.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// Package callable speaks the JSON envelope of callable functions:
// requests carry {"data": ...}, replies carry {"result": ...} or
// {"error": {"status": ..., "message": ...}}.
package callable

import (
	"encoding/json"
	"io"
	"net/http"

	"wizzAPI/internal/apperr"
)

const maxBodyBytes = 1 << 20

type request struct {
	Data json.RawMessage `json:"data"`
}

type resultBody struct {
	Result any `json:"result"`
}

type errorDetail struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// Decode unmarshals the data field of the request into dst. An empty body
// or a null data field leaves dst untouched.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Wrap(err, apperr.InvalidArgument, "Request body could not be read.")
	}
	if len(body) == 0 {
		return nil
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return apperr.Wrap(err, apperr.InvalidArgument, "Request body must be a JSON object with a data field.")
	}
	if len(req.Data) == 0 || string(req.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(req.Data, dst); err != nil {
		return apperr.Wrap(err, apperr.InvalidArgument, "Request data has the wrong shape.")
	}
	return nil
}

func WriteResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, resultBody{Result: result})
}

// WriteError writes the typed failure carried by err. Untyped errors are
// reported as internal without their details.
func WriteError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	writeJSON(w, e.Code.HTTPStatus(), errorBody{Error: errorDetail{Status: e.Code.Status(), Message: e.Message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

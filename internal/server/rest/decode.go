package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

const (
	msgNotString = "Not a valid string."
	msgNotBool   = "Must be a valid boolean."
	msgNull      = "This field may not be null."

	maxBodyBytes = 1 << 20
)

// parseError is a body that could not be read at all.
type parseError struct {
	status int
	detail string
}

func (e *parseError) Error() string { return e.detail }

var (
	trueValues  = map[string]bool{"t": true, "y": true, "yes": true, "true": true, "on": true, "1": true}
	falseValues = map[string]bool{"f": true, "n": true, "no": true, "false": true, "off": true, "0": true}
)

// readFields reads the request body into a key/value map. JSON values keep
// their decoded type; form values are strings.
func readFields(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &parseError{status: http.StatusRequestEntityTooLarge, detail: "Request body too large."}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	ct := r.Header.Get("Content-Type")
	mediaType := "application/json"
	if ct != "" {
		if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
			return nil, unsupported(ct)
		}
	}

	switch mediaType {
	case "application/json":
		return readJSON(body)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, &parseError{status: http.StatusBadRequest, detail: "Form parse error - " + err.Error()}
		}
		return formFields(r.PostForm), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, &parseError{status: http.StatusBadRequest, detail: "Multipart form parse error - " + err.Error()}
		}
		return formFields(r.MultipartForm.Value), nil
	default:
		return nil, unsupported(ct)
	}
}

func unsupported(ct string) error {
	return &parseError{
		status: http.StatusUnsupportedMediaType,
		detail: fmt.Sprintf("Unsupported media type %q in request.", ct),
	}
}

func readJSON(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &parseError{status: http.StatusBadRequest, detail: "JSON parse error - " + err.Error()}
	}
	if dec.More() {
		return nil, &parseError{status: http.StatusBadRequest, detail: "JSON parse error - trailing data after value"}
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, nonObject(v)
	}
	return m, nil
}

// nonObject reports a JSON body whose top-level value is not an object.
func nonObject(v any) error {
	kind := "str"
	switch v.(type) {
	case []any:
		kind = "list"
	case bool:
		kind = "bool"
	case json.Number:
		kind = "int"
	case nil:
		kind = "NoneType"
	}
	return &common.ValidationError{Fields: map[string][]string{
		"non_field_errors": {fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", kind)},
	}}
}

func formFields(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// stringField converts a decoded value to a string. Numbers are accepted in
// their literal form.
func stringField(v any) (string, string) {
	switch t := v.(type) {
	case nil:
		return "", msgNull
	case string:
		return t, ""
	case json.Number:
		return t.String(), ""
	default:
		return "", msgNotString
	}
}

func boolField(v any) (bool, string) {
	switch t := v.(type) {
	case nil:
		return false, msgNull
	case bool:
		return t, ""
	case json.Number:
		return boolText(t.String())
	case string:
		return boolText(strings.ToLower(strings.TrimSpace(t)))
	default:
		return false, msgNotBool
	}
}

func boolText(s string) (bool, string) {
	switch {
	case trueValues[s]:
		return true, ""
	case falseValues[s]:
		return false, ""
	default:
		return false, msgNotBool
	}
}

// decodeTodo reads a TodoPayload from r. Unknown keys are ignored. Type
// errors are reported in the returned *common.ValidationError together with
// the rule checks for partial or full writes.
func decodeTodo(r *http.Request, partial bool) (services.TodoPayload, error) {
	var p services.TodoPayload

	fields, err := readFields(r)
	if err != nil {
		return p, err
	}

	v := common.NewValidationError()
	if raw, ok := fields["title"]; ok {
		if s, msg := stringField(raw); msg != "" {
			v.Add("title", msg)
		} else {
			p.Title = &s
		}
	}
	if raw, ok := fields["description"]; ok {
		if s, msg := stringField(raw); msg != "" {
			v.Add("description", msg)
		} else {
			p.Description = &s
		}
	}
	if raw, ok := fields["completed"]; ok {
		if b, msg := boolField(raw); msg != "" {
			v.Add("completed", msg)
		} else {
			p.Completed = &b
		}
	}

	p.Check(partial, v)
	return p, v.OrNil()
}

type credentials struct {
	UserName string
	Password string
}

func decodeCredentials(r *http.Request) (credentials, error) {
	var c credentials

	fields, err := readFields(r)
	if err != nil {
		return c, err
	}

	v := common.NewValidationError()
	read := func(name string, dst *string) {
		raw, ok := fields[name]
		if !ok {
			v.Add(name, services.MsgRequired)
			return
		}
		s, msg := stringField(raw)
		switch {
		case msg != "":
			v.Add(name, msg)
		case s == "":
			v.Add(name, services.MsgBlank)
		default:
			*dst = s
		}
	}
	read("username", &c.UserName)
	read("password", &c.Password)

	return c, v.OrNil()
}

func asParseError(err error) (*parseError, bool) {
	var pe *parseError
	ok := errors.As(err, &pe)
	return pe, ok
}

// Package bind decodes HTTP request bodies and query strings into structs.
// Validation is left to the caller.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/vendo/config"
)

// ErrEmptyBody is returned by JSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// maxBodyBytes returns the configured request body size limit (default 1 MB).
func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

// JSON decodes r.Body as JSON into dest. The body is capped at
// MAX_BODY_BYTES. An absent body yields ErrEmptyBody.
func JSON(r *http.Request, dest interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err := json.NewDecoder(body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return ErrEmptyBody
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		default:
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return nil
}

// Query fills the fields of the struct pointed to by dest from the URL
// query, matching parameters by json tag name. Supported field types are
// string, int and *int. Values that do not parse are reported per field;
// unknown parameters are ignored.
func Query(r *http.Request, dest interface{}) map[string]string {
	errs := make(map[string]string)

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errs
	}
	rv = rv.Elem()
	rt := rv.Type()
	values := r.URL.Query()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}

		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}

		fv := rv.Field(i)
		switch {
		case fv.Kind() == reflect.String:
			fv.SetString(raw)
		case fv.Kind() == reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				errs[name] = fmt.Sprintf("The %s must be an integer.", name)
				continue
			}
			fv.SetInt(int64(n))
		case fv.Kind() == reflect.Ptr && fv.Type().Elem().Kind() == reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				errs[name] = fmt.Sprintf("The %s must be an integer.", name)
				continue
			}
			p := reflect.New(fv.Type().Elem())
			p.Elem().SetInt(int64(n))
			fv.Set(p)
		}
	}

	return errs
}

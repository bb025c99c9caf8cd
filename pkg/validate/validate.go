// Package validate checks request and filter payloads against rules declared
// in a `validate` struct tag.
//
// Rules are comma-separated. Bare rules are required, nullable and
// alpha_dash; parameterised rules are min=N, max=N, gt=N, gte=N, lte=N and
// in=a,b,c. The values of an in= list run until the next rule keyword, so
// `validate:"nullable,in=asc,desc"` reads as two rules.
//
// min and max compare string length in characters, or the value itself for
// numbers. nullable skips every other rule when the field is empty. Pointer
// fields are dereferenced and a nil pointer is empty.
//
//	type PurchaseFilterParams struct {
//	    Hours     *int   `json:"hours"     validate:"nullable,gte=1"`
//	    SortOrder string `json:"sortOrder" validate:"nullable,in=asc,desc"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

type rule struct {
	name  string
	param string
}

// checker returns a message when v breaks the rule, or "".
type checker func(field string, v reflect.Value, param string) string

var bareRules = map[string]bool{
	"required":   true,
	"nullable":   true,
	"alpha_dash": true,
}

var checkers = map[string]checker{
	"alpha_dash": checkAlphaDash,
	"min":        checkMin,
	"max":        checkMax,
	"gt": compare(func(n, p float64) bool { return n > p },
		"The %s must be greater than %s."),
	"gte": compare(func(n, p float64) bool { return n >= p },
		"The %s must be greater than or equal to %s."),
	"lte": compare(func(n, p float64) bool { return n <= p },
		"The %s must be less than or equal to %s."),
	"in": checkIn,
}

// Struct validates the exported fields of v that carry a `validate` tag and
// returns the first failure per field, keyed by the field's JSON name.
func Struct(v interface{}) map[string]string {
	errs := map[string]string{}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag, ok := sf.Tag.Lookup("validate")
		if !ok || tag == "" {
			continue
		}
		name := fieldName(sf)
		if msg := checkField(name, rv.Field(i), parseTag(tag)); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}

// HasErrors reports whether Struct found anything.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func checkField(name string, v reflect.Value, rules []rule) string {
	if empty(v) {
		if has(rules, "nullable") || !has(rules, "required") {
			return ""
		}
		return fmt.Sprintf("The %s field is required.", name)
	}

	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	for _, r := range rules {
		check, ok := checkers[r.name]
		if !ok {
			continue
		}
		if msg := check(name, v, r.param); msg != "" {
			return msg
		}
	}
	return ""
}

// parseTag splits "nullable,in=asc,desc,max=4" into nullable, in=asc,desc
// and max=4.
func parseTag(tag string) []rule {
	var rules []rule
	for _, tok := range strings.Split(tag, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		name, param, hasParam := strings.Cut(tok, "=")
		last := len(rules) - 1
		if !hasParam && !bareRules[tok] && last >= 0 && rules[last].name == "in" {
			rules[last].param += "," + tok
			continue
		}
		rules = append(rules, rule{name: name, param: param})
	}
	return rules
}

func has(rules []rule, name string) bool {
	for _, r := range rules {
		if r.name == name {
			return true
		}
	}
	return false
}

func checkAlphaDash(field string, v reflect.Value, _ string) string {
	for _, c := range text(v) {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '-' && c != '_' {
			return fmt.Sprintf("The %s field may only contain letters, numbers, dashes, and underscores.", field)
		}
	}
	return ""
}

func checkMin(field string, v reflect.Value, param string) string {
	limit := parseNumber(param)
	if n, ok := number(v); ok {
		if n < limit {
			return fmt.Sprintf("The %s must be at least %s.", field, param)
		}
		return ""
	}
	if float64(len([]rune(text(v)))) < limit {
		return fmt.Sprintf("The %s must be at least %s characters.", field, param)
	}
	return ""
}

func checkMax(field string, v reflect.Value, param string) string {
	limit := parseNumber(param)
	if n, ok := number(v); ok {
		if n > limit {
			return fmt.Sprintf("The %s must not be greater than %s.", field, param)
		}
		return ""
	}
	if float64(len([]rune(text(v)))) > limit {
		return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
	}
	return ""
}

// compare builds a numeric bound check. Non-numeric values are parsed from
// their printed form.
func compare(pass func(n, p float64) bool, format string) checker {
	return func(field string, v reflect.Value, param string) string {
		n, ok := number(v)
		if !ok {
			n = parseNumber(text(v))
		}
		if pass(n, parseNumber(param)) {
			return ""
		}
		return fmt.Sprintf(format, field, param)
	}
}

func checkIn(field string, v reflect.Value, param string) string {
	s := text(v)
	for _, allowed := range strings.Split(param, ",") {
		if s == strings.TrimSpace(allowed) {
			return ""
		}
	}
	return fmt.Sprintf("The selected %s is invalid.", field)
}

func empty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Bool:
		return false
	case reflect.Invalid:
		return true
	}
	return v.IsZero()
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func text(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}

func parseNumber(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func fieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(sf.Name)
	}
	return name
}

package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/araddon/dateparse"

	"github.com/pthm/larafront/lib/dom"
)

// Check is the input to a rule.
type Check struct {
	Field string
	// Value is the submitted value, or the first selected file for file
	// rules on a file field.
	Value any
	Param string
	Data  map[string]any
}

// File returns Value as a file, or nil.
func (c Check) File() *dom.File {
	f, _ := c.Value.(*dom.File)
	return f
}

// RuleFunc reports whether a check passes.
type RuleFunc func(Check) bool

// Token is one parsed rule: "max:10" gives {Name: "max", Param: "10"}.
type Token struct {
	Name  string
	Param string
}

func (t Token) String() string {
	if t.Param == "" {
		return t.Name
	}
	return t.Name + ":" + t.Param
}

// ParseRules splits a rule string of the form "required|min:3|mimes:png,jpg".
// Everything after the first colon is the parameter.
func ParseRules(s string) []Token {
	var out []Token
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, param, _ := strings.Cut(part, ":")
		out = append(out, Token{Name: strings.TrimSpace(name), Param: param})
	}
	return out
}

var fileRules = map[string]bool{
	"file": true, "files": true,
	"image": true, "images": true,
	"video": true, "videos": true,
	"mimes": true, "dimensions": true,
}

// IsFileRule reports whether name marks a field as a file field.
func IsFileRule(name string) bool { return fileRules[name] }

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")
)

// Empty reports whether v counts as not provided. Empty values pass every
// rule except required.
func Empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case *dom.File:
		return x == nil
	case []any:
		return len(x) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

func builtinRules() map[string]RuleFunc {
	rules := map[string]RuleFunc{
		"required": func(c Check) bool {
			switch x := c.Value.(type) {
			case nil:
				return false
			case string:
				return strings.TrimSpace(x) != ""
			case *dom.File:
				return x != nil
			}
			return true
		},
		"email": optional(func(c Check) bool {
			return emailPattern.MatchString(toString(c.Value))
		}),
		"min": optional(func(c Check) bool {
			return compareSize(c, func(have, limit float64) bool { return have >= limit })
		}),
		"max": optional(func(c Check) bool {
			return compareSize(c, func(have, limit float64) bool { return have <= limit })
		}),
		"minLength": optional(func(c Check) bool {
			n, err := strconv.Atoi(strings.TrimSpace(c.Param))
			return err == nil && utf8.RuneCountInString(toString(c.Value)) >= n
		}),
		"maxLength": optional(func(c Check) bool {
			n, err := strconv.Atoi(strings.TrimSpace(c.Param))
			return err == nil && utf8.RuneCountInString(toString(c.Value)) <= n
		}),
		"numeric": optional(func(c Check) bool {
			_, ok := toNumber(c.Value)
			return ok
		}),
		"integer": optional(func(c Check) bool {
			f, ok := toNumber(c.Value)
			return ok && f == float64(int64(f))
		}),
		"url": optional(func(c Check) bool {
			u, err := url.ParseRequestURI(toString(c.Value))
			return err == nil && u.Scheme != "" && u.Host != ""
		}),
		"phone": optional(func(c Check) bool {
			return phonePattern.MatchString(phoneStrip.Replace(toString(c.Value)))
		}),
		"confirmed": optional(func(c Check) bool {
			other := c.Field + "_confirmation"
			if base, ok := strings.CutSuffix(c.Field, "_confirmation"); ok {
				other = base
			}
			want, ok := c.Data[other]
			return ok && toString(want) == toString(c.Value)
		}),
		"regex": optional(func(c Check) bool {
			re, err := regexp.Compile(c.Param)
			return err == nil && re.MatchString(toString(c.Value))
		}),
		"date": optional(func(c Check) bool {
			_, err := dateparse.ParseAny(toString(c.Value))
			return err == nil
		}),
		"alpha": optional(func(c Check) bool {
			return allRunes(toString(c.Value), unicode.IsLetter)
		}),
		"alpha_num": optional(func(c Check) bool {
			return allRunes(toString(c.Value), func(r rune) bool {
				return unicode.IsLetter(r) || unicode.IsDigit(r)
			})
		}),
		"in": optional(func(c Check) bool {
			v := toString(c.Value)
			for _, opt := range strings.Split(c.Param, ",") {
				if strings.TrimSpace(opt) == v {
					return true
				}
			}
			return false
		}),
		"boolean": optional(func(c Check) bool {
			switch x := c.Value.(type) {
			case bool:
				return true
			case string:
				switch x {
				case "true", "false", "1", "0":
					return true
				}
				return false
			}
			f, ok := toNumber(c.Value)
			return ok && (f == 0 || f == 1)
		}),
		"file":  optional(isFile),
		"files": optional(isFile),
		"image": optional(func(c Check) bool {
			f := c.File()
			return f != nil && strings.HasPrefix(f.Type, "image/")
		}),
		"video": optional(func(c Check) bool {
			f := c.File()
			return f != nil && strings.HasPrefix(f.Type, "video/")
		}),
		"mimes": optional(func(c Check) bool {
			f := c.File()
			if f == nil {
				return false
			}
			if strings.TrimSpace(c.Param) == "" {
				return true
			}
			ext := strings.ToLower(f.Extension())
			mime := strings.ToLower(f.Type)
			for _, t := range strings.Split(c.Param, ",") {
				t = strings.ToLower(strings.TrimSpace(t))
				if t != "" && (ext == t || strings.Contains(mime, t)) {
					return true
				}
			}
			return false
		}),
		"fileMax": optional(func(c Check) bool {
			return compareFileSize(c, func(size, limit float64) bool { return size <= limit })
		}),
		"fileMin": optional(func(c Check) bool {
			return compareFileSize(c, func(size, limit float64) bool { return size >= limit })
		}),
		"dimensions": optional(func(c Check) bool {
			return c.File() != nil
		}),
	}
	rules["images"] = rules["image"]
	rules["videos"] = rules["video"]
	return rules
}

// optional lets empty values pass.
func optional(fn RuleFunc) RuleFunc {
	return func(c Check) bool {
		if Empty(c.Value) {
			return true
		}
		return fn(c)
	}
}

func isFile(c Check) bool {
	f := c.File()
	return f != nil && f.Name != ""
}

// compareSize measures strings by length and everything else as a number.
func compareSize(c Check, ok func(have, limit float64) bool) bool {
	limit, err := strconv.ParseFloat(strings.TrimSpace(c.Param), 64)
	if err != nil {
		return false
	}
	if s, isString := c.Value.(string); isString {
		return ok(float64(utf8.RuneCountInString(s)), float64(int64(limit)))
	}
	n, isNum := toNumber(c.Value)
	return isNum && ok(n, limit)
}

// compareFileSize compares the file's byte size to Param kilobytes.
func compareFileSize(c Check, ok func(size, limit float64) bool) bool {
	f := c.File()
	if f == nil {
		return false
	}
	kb, err := strconv.ParseFloat(strings.TrimSpace(c.Param), 64)
	if err != nil {
		return false
	}
	return ok(float64(f.Size), kb*1024)
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case bool, nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func allRunes(s string, fn func(rune) bool) bool {
	for _, r := range s {
		if !fn(r) {
			return false
		}
	}
	return true
}

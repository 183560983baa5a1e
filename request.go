package larafront

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goodsign/monday"

	"github.com/pthm/larafront/lib/dom"
	"github.com/pthm/larafront/lib/validation"
	"github.com/pthm/larafront/lib/view"
)

// Request carries the fields and files of a dispatched event. For
// validated handlers it also wraps the form request that passed
// validation.
type Request struct {
	name   string
	form   validation.FormRequest
	fields map[string]any
	files  map[string][]*UploadedFile
	locale string
}

func newRequest(name string, form validation.FormRequest, rc *RequestContext, locale string) *Request {
	r := &Request{
		name:   name,
		form:   form,
		fields: make(map[string]any, len(rc.Fields)),
		files:  make(map[string][]*UploadedFile, len(rc.Files)),
		locale: locale,
	}
	for k, v := range rc.Fields {
		r.fields[k] = v
	}
	for field, list := range rc.Files {
		for _, f := range list {
			r.files[field] = append(r.files[field], NewUploadedFile(f))
		}
	}
	return r
}

// Name returns the registry name of the form request, or "" for a
// passthrough request.
func (r *Request) Name() string { return r.name }

// Form returns the validated form request, or nil.
func (r *Request) Form() validation.FormRequest { return r.form }

// Validated reports whether the request went through validation.
func (r *Request) Validated() bool { return r.form != nil }

// All returns the fields and, under their input names, the uploaded files.
func (r *Request) All() map[string]any {
	out := r.Fields()
	for k, v := range r.files {
		out[k] = v
	}
	return out
}

// Fields returns a copy of the non-file fields.
func (r *Request) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Input returns the field at key, which may be a dotted path into nested
// data-attribute objects. def is returned when the key is missing.
func (r *Request) Input(key string, def ...any) any {
	if v, ok := r.lookup(key); ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return nil
}

// Has reports whether key is present.
func (r *Request) Has(key string) bool {
	_, ok := r.lookup(key)
	return ok
}

func (r *Request) lookup(key string) (any, bool) {
	var cur any = r.fields
	for _, part := range strings.Split(key, ".") {
		v, ok := view.Lookup(cur, part)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Only returns the listed fields that are present.
func (r *Request) Only(keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := r.fields[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Except returns every field except the listed ones.
func (r *Request) Except(keys ...string) map[string]any {
	out := r.Fields()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// File returns the first file selected for field, or nil.
func (r *Request) File(field string) *UploadedFile {
	if list := r.files[field]; len(list) > 0 {
		return list[0]
	}
	return nil
}

// Files returns the files selected for field.
func (r *Request) Files(field string) []*UploadedFile {
	return r.files[field]
}

// AllFiles returns every selected file keyed by input name.
func (r *Request) AllFiles() map[string][]*UploadedFile {
	out := make(map[string][]*UploadedFile, len(r.files))
	for k, v := range r.files {
		out[k] = v
	}
	return out
}

// HasFiles reports whether field has files. With no field it reports
// whether any input has files.
func (r *Request) HasFiles(field ...string) bool {
	if len(field) == 0 {
		return len(r.files) > 0
	}
	return len(r.files[field[0]]) > 0
}

// FileInfo summarizes an uploaded file for display.
type FileInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	HumanSize    string `json:"human_size"`
	Type         string `json:"type"`
	LastModified string `json:"last_modified"`
}

// FilesInfo describes every uploaded file, keyed by input name, with the
// modification time formatted for the request's locale. It returns nil
// when there are no files.
func (r *Request) FilesInfo() map[string][]FileInfo {
	if !r.HasFiles() {
		return nil
	}
	loc := mondayLocale(r.locale)
	fields := make([]string, 0, len(r.files))
	for f := range r.files {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make(map[string][]FileInfo, len(fields))
	for _, field := range fields {
		for _, f := range r.files[field] {
			info := FileInfo{
				Name:      f.ClientOriginalName(),
				Size:      f.Size(),
				HumanSize: humanize.Bytes(uint64(max(f.Size(), 0))),
				Type:      f.MimeType(),
			}
			if t := f.file.LastModified; !t.IsZero() {
				info.LastModified = monday.Format(t, "2 January 2006 15:04:05", loc)
			}
			out[field] = append(out[field], info)
		}
	}
	return out
}

func mondayLocale(locale string) monday.Locale {
	l := strings.ToLower(strings.ReplaceAll(locale, "-", "_"))
	byLang := map[string]monday.Locale{
		"en": monday.LocaleEnUS,
		"fr": monday.LocaleFrFR,
		"de": monday.LocaleDeDE,
		"es": monday.LocaleEsES,
		"it": monday.LocaleItIT,
		"pt": monday.LocalePtPT,
		"nl": monday.LocaleNlNL,
		"ru": monday.LocaleRuRU,
		"tr": monday.LocaleTrTR,
		"ja": monday.LocaleJaJP,
		"zh": monday.LocaleZhCN,
	}
	if loc, ok := byLang[l]; ok {
		return loc
	}
	if lang, _, ok := strings.Cut(l, "_"); ok {
		if loc, ok := byLang[lang]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}

// UploadedFile exposes a selected file with Laravel's accessor names.
type UploadedFile struct {
	file *dom.File
}

// NewUploadedFile wraps a DOM file.
func NewUploadedFile(f *dom.File) *UploadedFile {
	return &UploadedFile{file: f}
}

// File returns the underlying DOM file.
func (u *UploadedFile) File() *dom.File { return u.file }

// ClientOriginalName returns the name the file was selected with.
func (u *UploadedFile) ClientOriginalName() string { return u.file.Name }

// RealPath returns where the file's content lives, or "" when unknown.
func (u *UploadedFile) RealPath() string { return u.file.Path }

// Size returns the size in bytes.
func (u *UploadedFile) Size() int64 { return u.file.Size }

// MimeType returns the reported MIME type.
func (u *UploadedFile) MimeType() string { return u.file.Type }

// ClientOriginalExtension returns the extension of the original name
// without the dot.
func (u *UploadedFile) ClientOriginalExtension() string { return u.file.Extension() }

// MarshalJSON encodes the file as its FileInfo-style summary.
func (u *UploadedFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"name": u.file.Name,
		"size": u.file.Size,
		"type": u.file.Type,
	})
}

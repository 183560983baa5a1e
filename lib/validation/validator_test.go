package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm/larafront/lib/dom"
	"github.com/pthm/larafront/lib/translation"
)

type userRequest struct {
	rules      map[string]string
	messages   map[string]string
	attributes map[string]string
	authorized bool
}

func (r userRequest) Rules() map[string]string      { return r.rules }
func (r userRequest) Messages() map[string]string   { return r.messages }
func (r userRequest) Attributes() map[string]string { return r.attributes }
func (r userRequest) Authorize() bool               { return r.authorized }

func TestParseRules(t *testing.T) {
	got := ParseRules("required| min:3 |regex:^a:b$|mimes:png,jpg||")
	want := []Token{
		{Name: "required"},
		{Name: "min", Param: "3"},
		{Name: "regex", Param: "^a:b$"},
		{Name: "mimes", Param: "png,jpg"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRules() mismatch (-want +got):\n%s", diff)
	}
}

func TestRules(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		rules string
		data  map[string]any
		valid bool
	}{
		{"required missing", "required", map[string]any{}, false},
		{"required blank", "required", map[string]any{"f": "   "}, false},
		{"required present", "required", map[string]any{"f": "x"}, true},
		{"required unchecked checkbox", "required", map[string]any{"f": false}, true},
		{"absent optional skipped", "email", map[string]any{}, true},
		{"empty optional passes", "email|min:3", map[string]any{"f": ""}, true},
		{"email ok", "email", map[string]any{"f": "a@b.co"}, true},
		{"email bad", "email", map[string]any{"f": "a@b"}, false},
		{"min string too short", "min:3", map[string]any{"f": "ab"}, false},
		{"min string exact", "min:3", map[string]any{"f": "abc"}, true},
		{"min counts runes", "min:3", map[string]any{"f": "أحمد"}, true},
		{"max number", "max:10", map[string]any{"f": 11}, false},
		{"min number", "min:5", map[string]any{"f": 5.5}, true},
		{"minLength", "minLength:4", map[string]any{"f": "abc"}, false},
		{"maxLength", "maxLength:2", map[string]any{"f": "ab"}, true},
		{"numeric string", "numeric", map[string]any{"f": "12.5"}, true},
		{"numeric bad", "numeric", map[string]any{"f": "12a"}, false},
		{"integer", "integer", map[string]any{"f": "12.5"}, false},
		{"url", "url", map[string]any{"f": "https://example.com/x"}, true},
		{"url bad", "url", map[string]any{"f": "example"}, false},
		{"phone formatted", "phone", map[string]any{"f": "(012) 345-67890"}, true},
		{"phone short", "phone", map[string]any{"f": "12345"}, false},
		{"regex", "regex:^[a-z]+$", map[string]any{"f": "abc"}, true},
		{"regex invalid pattern", "regex:[", map[string]any{"f": "abc"}, false},
		{"date", "date", map[string]any{"f": "2024-03-01"}, true},
		{"date bad", "date", map[string]any{"f": "not a date"}, false},
		{"alpha", "alpha", map[string]any{"f": "abcد"}, true},
		{"alpha_num bad", "alpha_num", map[string]any{"f": "ab-1"}, false},
		{"in", "in:a,b", map[string]any{"f": "b"}, true},
		{"in bad", "in:a,b", map[string]any{"f": "c"}, false},
		{"boolean", "boolean", map[string]any{"f": "1"}, true},
		{"unknown rule ignored", "shiny", map[string]any{"f": "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateRules(map[string]string{"f": tt.rules}, Input{Data: tt.data})
			if res.Valid() != tt.valid {
				t.Errorf("Valid() = %v, want %v (errors %v)", res.Valid(), tt.valid, res.Errors())
			}
		})
	}
}

func TestMinProducesOneError(t *testing.T) {
	v := New()
	res := v.ValidateRules(map[string]string{"name": "min:3"}, Input{Data: map[string]any{"name": "ab"}})
	if got := len(res.Get("name")); got != 1 {
		t.Errorf("len(Get(name)) = %d, want 1", got)
	}
}

func TestConfirmed(t *testing.T) {
	v := New()
	rules := map[string]string{"password": "confirmed"}

	tests := []struct {
		name  string
		data  map[string]any
		valid bool
	}{
		{"match", map[string]any{"password": "s3cret", "password_confirmation": "s3cret"}, true},
		{"mismatch", map[string]any{"password": "s3cret", "password_confirmation": "other"}, false},
		{"missing confirmation", map[string]any{"password": "s3cret"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.ValidateRules(rules, Input{Data: tt.data}).Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestFileRules(t *testing.T) {
	v := New()
	png := &dom.File{Name: "me.png", Size: 3 * 1024, Type: "image/png"}
	mp4 := &dom.File{Name: "clip.mp4", Size: 10, Type: "video/mp4"}

	tests := []struct {
		name  string
		rules string
		files []*dom.File
		valid bool
	}{
		{"required without file", "required|image", nil, false},
		{"required with file", "required|image", []*dom.File{png}, true},
		{"optional without file", "image|max:1", nil, true},
		{"image wrong type", "image", []*dom.File{mp4}, false},
		{"video", "video", []*dom.File{mp4}, true},
		{"mimes by extension", "mimes:jpg,png", []*dom.File{png}, true},
		{"mimes by type", "file|mimes:mp4", []*dom.File{mp4}, true},
		{"mimes rejected", "mimes:pdf", []*dom.File{png}, false},
		{"max uses kilobytes", "image|max:2", []*dom.File{png}, false},
		{"max within limit", "image|max:3", []*dom.File{png}, true},
		{"min uses kilobytes", "file|min:4", []*dom.File{png}, false},
		{"only first file checked", "images", []*dom.File{png, mp4}, true},
		{"dimensions passes", "dimensions", []*dom.File{png}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Data: map[string]any{}, Files: map[string][]*dom.File{}}
			if tt.files != nil {
				in.Files["avatar"] = tt.files
			}
			if tt.rules == "required|image" || tt.files != nil {
				in.Data["avatar"] = ""
			}
			res := v.ValidateRules(map[string]string{"avatar": tt.rules}, in)
			if res.Valid() != tt.valid {
				t.Errorf("Valid() = %v, want %v (errors %v)", res.Valid(), tt.valid, res.Errors())
			}
		})
	}
}

func TestFileMinIgnoresNameLength(t *testing.T) {
	v := New()
	// 3 KB file with a long name: min:3 on a file field compares size, not
	// the length of the submitted value.
	f := &dom.File{Name: "a-very-long-name.png", Size: 3 * 1024, Type: "image/png"}
	in := Input{Data: map[string]any{"avatar": "x"}, Files: map[string][]*dom.File{"avatar": {f}}}
	if res := v.ValidateRules(map[string]string{"avatar": "image|min:3"}, in); !res.Valid() {
		t.Errorf("Valid() = false, errors %v", res.Errors())
	}
	if res := v.ValidateRules(map[string]string{"avatar": "image|min:4"}, in); res.Valid() {
		t.Error("Valid() = true for a 3 KB file under min:4")
	}
}

func TestMessages(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		req  userRequest
		data map[string]any
		want map[string][]string
	}{
		{
			name: "translated default with attribute translation",
			req:  userRequest{rules: map[string]string{"email": "required"}, authorized: true},
			data: map[string]any{},
			want: map[string][]string{"email": {"The email field is required."}},
		},
		{
			name: "custom attribute name",
			req: userRequest{
				rules:      map[string]string{"name": "min:3"},
				attributes: map[string]string{"name": "Full name"},
				authorized: true,
			},
			data: map[string]any{"name": "ab"},
			want: map[string][]string{"name": {"The Full name field must be at least 3."}},
		},
		{
			name: "custom message with placeholders",
			req: userRequest{
				rules:      map[string]string{"name": "max:2"},
				messages:   map[string]string{"name.max": ":attribute is over :max"},
				authorized: true,
			},
			data: map[string]any{"name": "abc"},
			want: map[string][]string{"name": {"name is over 2"}},
		},
		{
			name: "commented custom message is ignored",
			req: userRequest{
				rules:      map[string]string{"name": "required"},
				messages:   map[string]string{"name.required": "// todo"},
				attributes: map[string]string{"name": "  "},
				authorized: true,
			},
			data: map[string]any{"name": ""},
			want: map[string][]string{"name": {"The name field is required."}},
		},
		{
			name: "untranslated rule falls back to key",
			req:  userRequest{rules: map[string]string{"code": "odd"}, authorized: true},
			data: map[string]any{"code": "x"},
			want: map[string][]string{"code": {"validation.odd"}},
		},
		{
			name: "unauthorized",
			req:  userRequest{rules: map[string]string{}, authorized: false},
			data: map[string]any{},
			want: map[string][]string{AuthorizeField: {"This action is unauthorized."}},
		},
		{
			name: "mimes values",
			req:  userRequest{rules: map[string]string{"doc": "mimes:pdf,txt"}, authorized: true},
			data: map[string]any{"doc": ""},
			want: map[string][]string{"doc": {"The doc field must be a file of type: pdf,txt."}},
		},
	}

	v.AddRule("odd", func(Check) bool { return false })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Data: tt.data}
			if strings.HasPrefix(tt.name, "mimes") {
				in.Files = map[string][]*dom.File{"doc": {{Name: "x.png", Type: "image/png"}}}
			}
			got := v.Validate(tt.req, in).Errors()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Errors() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestArabicMessages(t *testing.T) {
	v := New(WithTranslator(translation.Default("ar", "en")))
	res := v.ValidateRules(map[string]string{"name": "required"}, Input{Data: map[string]any{}})
	if got := res.First(); got != "حقل الاسم مطلوب." {
		t.Errorf("First() = %q", got)
	}
}

func TestResultAccessors(t *testing.T) {
	r := NewResult()
	if !r.Valid() || r.First() != "" || r.Has("x") {
		t.Fatal("empty result should be valid with no messages")
	}
	r.Add("b", "b1")
	r.Add("a", "a1")
	r.Add("b", "b2")

	if r.Valid() {
		t.Error("Valid() = true after Add")
	}
	if got := r.First(); got != "b1" {
		t.Errorf("First() = %q, want b1", got)
	}
	if diff := cmp.Diff([]string{"b", "a"}, r.Fields()); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b1", "b2"}, r.Get("b")); diff != "" {
		t.Errorf("Get(b) mismatch (-want +got):\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	doc, err := dom.ParseString(`<form id="f">
		<input name="name"><span class="error-message">stale</span>
		<input name="email" class="error">
	</form>`)
	if err != nil {
		t.Fatal(err)
	}
	form := doc.ByID("f")

	res := NewResult()
	res.Add("name", "Name <required>")
	res.Add("name", "second")
	res.Add("ghost", "not in form")
	res.Apply(form, "error")

	spans := form.Find(".error-message")
	if len(spans) != 1 {
		t.Fatalf("error spans = %d, want 1", len(spans))
	}
	if got := spans[0].Text(); got != "Name <required>" {
		t.Errorf("span text = %q", got)
	}
	if !form.Field("name").HasClass("error") {
		t.Error("name field missing error class")
	}
	if form.Field("email").HasClass("error") {
		t.Error("stale error class not cleared from email")
	}

	Clear(form, "error")
	if len(form.Find(".error-message")) != 0 || form.Field("name").HasClass("error") {
		t.Error("Clear() left error markup")
	}
}

func TestCustomRules(t *testing.T) {
	slug := func(c Check) bool {
		s, _ := c.Value.(string)
		return s != "" && !strings.ContainsAny(s, " /") && strings.ToLower(s) == s
	}
	v := New(WithRule("slug", slug))

	for _, tt := range []struct {
		rule string
		want bool
	}{
		{"slug", true},
		{"required", true},
		{"fileMax", true},
		{"nope", false},
	} {
		if got := v.HasRule(tt.rule); got != tt.want {
			t.Errorf("HasRule(%q) = %v, want %v", tt.rule, got, tt.want)
		}
	}

	rules := map[string]string{"path": "required|slug"}
	res := v.ValidateRules(rules, Input{Data: map[string]any{"path": "Not A Slug"}})
	want := map[string][]string{"path": {"validation.slug"}}
	if diff := cmp.Diff(want, res.Errors()); diff != "" {
		t.Errorf("Errors() mismatch (-want +got):\n%s", diff)
	}
	if res := v.ValidateRules(rules, Input{Data: map[string]any{"path": "release-notes"}}); !res.Valid() {
		t.Errorf("Errors() = %v, want valid", res.Errors())
	}

	v.AddRule("slug", func(Check) bool { return true })
	if res := v.ValidateRules(rules, Input{Data: map[string]any{"path": "Not A Slug"}}); !res.Valid() {
		t.Errorf("replaced rule still fails: %v", res.Errors())
	}
}

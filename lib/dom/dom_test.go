package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const page = `<!DOCTYPE html>
<html><body>
<div id="app" class="container" data-section="main">
  <form id="login" class="auth form" method="post">
    <input type="text" name="email" value="a@b.co">
    <input type="password" name="password" value="secret">
    <input type="checkbox" name="remember" checked>
    <input type="checkbox" name="terms">
    <input type="radio" name="plan" value="free">
    <input type="radio" name="plan" value="pro" checked>
    <input type="file" name="avatar">
    <select name="country"><option value="eg">Egypt</option><option value="sa" selected>Saudi</option></select>
    <textarea name="bio">hello</textarea>
    <input type="text" name="tags[]" value="a">
    <input type="text" name="tags[]" value="b">
    <button type="submit" id="go">Go</button>
    <button type="button" id="noop">No</button>
  </form>
  <ul><li class="item">one</li><li class="item active">two</li></ul>
</div>
</body></html>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func TestQuery(t *testing.T) {
	doc := mustParse(t, page)

	tests := []struct {
		name     string
		selector string
		want     int
	}{
		{"tag", "li", 2},
		{"id", "#login", 1},
		{"tag and id", "form#login", 1},
		{"multiple classes", ".auth.form", 1},
		{"class chain mismatch", ".auth.missing", 0},
		{"attribute presence", "[data-section]", 1},
		{"attribute equality", `input[type="checkbox"]`, 2},
		{"attribute prefix", `[id^=log]`, 1},
		{"descendant", "#app li", 2},
		{"child", "ul > li.active", 1},
		{"child mismatch", "#app > li", 0},
		{"list", "select, textarea", 2},
		{"universal", "ul > *", 2},
		{"invalid", "#", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(doc.Query(tt.selector)); got != tt.want {
				t.Errorf("Query(%q) matched %d, want %d", tt.selector, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, s := range []string{"", "> a", "a >", "a,", "[x", ".", "a:hover"} {
		if _, err := Compile(s); err == nil {
			t.Errorf("Compile(%q) succeeded, want error", s)
		}
	}
}

func TestSerialize(t *testing.T) {
	doc := mustParse(t, page)
	form := doc.ByID("login")

	got := form.Serialize()
	want := map[string]any{
		"email":    "a@b.co",
		"password": "secret",
		"remember": true,
		"terms":    false,
		"plan":     "pro",
		"country":  "sa",
		"bio":      "hello",
		"tags":     []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Serialize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeFromChild(t *testing.T) {
	doc := mustParse(t, page)
	btn := doc.ByID("go")
	if got := btn.Serialize()["email"]; got != "a@b.co" {
		t.Errorf("Serialize()[email] = %v, want a@b.co", got)
	}
}

func TestFormFiles(t *testing.T) {
	doc := mustParse(t, page)
	form := doc.ByID("login")

	if got := len(form.FormFiles()); got != 0 {
		t.Fatalf("FormFiles() before selection = %d entries, want 0", got)
	}

	avatar := form.Field("avatar")
	avatar.SetFiles(&File{Name: "me.png", Size: 2048, Type: "image/png"})

	files := form.FormFiles()
	if len(files["avatar"]) != 1 || files["avatar"][0].Name != "me.png" {
		t.Errorf("FormFiles()[avatar] = %v, want me.png", files["avatar"])
	}
	if ext := files["avatar"][0].Extension(); ext != "png" {
		t.Errorf("Extension() = %q, want png", ext)
	}
}

func TestClasses(t *testing.T) {
	doc := mustParse(t, `<div id="x" class="a d-none"></div>`)
	el := doc.ByID("x")

	el.AddClass("b", "a")
	if got := el.Classes(); !cmp.Equal(got, []string{"a", "d-none", "b"}) {
		t.Errorf("Classes() = %v", got)
	}
	el.Show()
	if el.Hidden() {
		t.Error("Show() left d-none in place")
	}
	el.RemoveClass("a", "b")
	if _, ok := el.Attr("class"); ok {
		t.Error("RemoveClass() of every class should drop the attribute")
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want string
	}{
		{"inner", Inner, `<div id="box"><b>new</b></div>`},
		{"beforeend", BeforeEnd, `<div id="box"><i>old</i><b>new</b></div>`},
		{"afterbegin", AfterBegin, `<div id="box"><b>new</b><i>old</i></div>`},
		{"beforebegin", BeforeBegin, `<b>new</b><div id="box"><i>old</i></div>`},
		{"afterend", AfterEnd, `<div id="box"><i>old</i></div><b>new</b>`},
		{"outer", Outer, `<b>new</b>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, `<section id="s"><div id="box"><i>old</i></div></section>`)
			if err := doc.ByID("box").Insert(tt.pos, "<b>new</b>"); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
			if got := doc.ByID("s").InnerHTML(); got != tt.want {
				t.Errorf("InnerHTML() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDispatchBubbles(t *testing.T) {
	doc := mustParse(t, page)
	var order []string

	doc.ByID("app").On("click", func(ev *Event) { order = append(order, "app:"+ev.CurrentTarget.ID()) })
	doc.ByID("login").On("click", func(ev *Event) { order = append(order, "form:"+ev.Target.ID()) })

	doc.ByID("noop").Trigger("click")

	want := []string{"form:noop", "app:app"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("listener order mismatch (-want +got):\n%s", diff)
	}
}

func TestStopPropagationAndOff(t *testing.T) {
	doc := mustParse(t, page)
	calls := 0

	doc.ByID("app").On("click", func(*Event) { calls++ })
	off := doc.ByID("login").On("click", func(ev *Event) { ev.StopPropagation() })

	doc.ByID("noop").Trigger("click")
	if calls != 0 {
		t.Fatalf("ancestor ran after StopPropagation: calls = %d", calls)
	}

	off()
	doc.ByID("noop").Trigger("click")
	if calls != 1 {
		t.Errorf("calls after off() = %d, want 1", calls)
	}
}

func TestSubmitDefaultAction(t *testing.T) {
	tests := []struct {
		name        string
		prevent     bool
		wantSubmits int
	}{
		{"click submits", false, 1},
		{"prevented click does not submit", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, page)
			submits := 0
			doc.ByID("login").On("submit", func(*Event) { submits++ })
			doc.ByID("go").On("click", func(ev *Event) {
				if tt.prevent {
					ev.PreventDefault()
				}
			})

			doc.ByID("go").Trigger("click")
			if submits != tt.wantSubmits {
				t.Errorf("submits = %d, want %d", submits, tt.wantSubmits)
			}
		})
	}
}

func TestMouseEnterDoesNotBubble(t *testing.T) {
	doc := mustParse(t, page)
	calls := 0
	doc.ByID("app").On("mouseenter mouseleave", func(*Event) { calls++ })

	doc.ByID("go").Trigger("mouseenter")
	doc.ByID("app").Trigger("mouseleave")
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestData(t *testing.T) {
	doc := mustParse(t, `<button id="b" data-user-id="7" data-role="admin" data-="x">x</button>`)
	got := doc.ByID("b").Data()
	want := map[string]string{"user-id": "7", "role": "admin"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Data() mismatch (-want +got):\n%s", diff)
	}
}

func TestSetValue(t *testing.T) {
	doc := mustParse(t, page)
	sel := doc.First(`select[name="country"]`)
	sel.SetValue("eg")
	if got := sel.Value(); got != "eg" {
		t.Errorf("select Value() = %q, want eg", got)
	}
	area := doc.First("textarea")
	area.SetValue("bye")
	if got := area.Value(); got != "bye" {
		t.Errorf("textarea Value() = %q, want bye", got)
	}
	if !strings.Contains(doc.HTML(), "bye") {
		t.Error("HTML() missing updated textarea")
	}
}

package badge

import (
	"encoding/base64"
	"regexp"
	"strings"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
)

func testEvent() EventContext {
	return EventContext{
		Name:           "GopherConf 2026",
		BrandPrimary:   "#0044cc",
		BrandSecondary: "#ffaa00",
	}
}

func testUser() UserContext {
	return UserContext{
		FullName: "Jane Doe",
		Company:  "Acme Corp",
		Title:    "Engineer",
		Token:    "abc123",
	}
}

var slotPositionRe = regexp.MustCompile(`left:([0-9.]+)px;top:([0-9.]+)px`)

func slotPositions(t *testing.T, html string) [][]string {
	t.Helper()
	matches := slotPositionRe.FindAllStringSubmatch(html, -1)
	out := make([][]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, []string{m[1], m[2]})
	}
	return out
}

func TestRenderPreviewAndPrintPositionsMatch(t *testing.T) {
	tpl := NewCustomTemplate("Parity")

	preview, err := Render(RenderInput{Template: tpl, Event: testEvent(), User: testUser(), Mode: ModePreview})
	if err != nil {
		t.Fatalf("render preview: %v", err)
	}
	printed, err := Render(RenderInput{Template: tpl, Event: testEvent(), User: testUser(), Mode: ModePrint})
	if err != nil {
		t.Fatalf("render print: %v", err)
	}

	previewPos := slotPositions(t, preview)
	printPos := slotPositions(t, printed)
	if len(previewPos) == 0 {
		t.Fatal("no positioned slots found in preview output")
	}
	if len(previewPos) != len(printPos) {
		t.Fatalf("slot count differs: preview=%d print=%d", len(previewPos), len(printPos))
	}
	for i := range previewPos {
		if previewPos[i][0] != printPos[i][0] || previewPos[i][1] != printPos[i][1] {
			t.Fatalf("slot %d position differs: preview=%v print=%v", i, previewPos[i], printPos[i])
		}
	}
}

func TestRenderPreviewUsesPlaceholderText(t *testing.T) {
	tpl := NewCustomTemplate("Preview")
	html, err := Render(RenderInput{Template: tpl, Event: testEvent(), User: testUser(), Mode: ModePreview})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{">Name<", ">Company<", ">Title<"} {
		if !strings.Contains(html, want) {
			t.Fatalf("preview output missing placeholder %q", want)
		}
	}
	if strings.Contains(html, "Jane Doe") {
		t.Fatal("preview output must not bind real attendee data")
	}
}

func TestRenderPrintBindsAttendeeData(t *testing.T) {
	tpl := NewCustomTemplate("Print")
	html, err := Render(RenderInput{Template: tpl, Event: testEvent(), User: testUser(), Mode: ModePrint})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Jane Doe") {
		t.Fatal("print output missing attendee name")
	}
	if !strings.Contains(html, "Acme Corp") {
		t.Fatal("print output missing attendee company")
	}
	if !strings.Contains(html, "data:image/png;base64,") {
		t.Fatal("print output missing QR code image")
	}
}

func TestRenderQRCodeEncodesToken(t *testing.T) {
	tpl := NewCustomTemplate("QR")
	user := testUser()

	html, err := Render(RenderInput{Template: tpl, Event: testEvent(), User: user, Mode: ModePrint})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	// 相同编码参数下，载荷为 token 的二维码 PNG 必须逐字节出现在输出中。
	png, err := qrcode.Encode(user.Token, qrcode.Medium, int(tpl.Slots.QRCode.Size.Width))
	if err != nil {
		t.Fatalf("encode reference qr: %v", err)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	if !strings.Contains(html, want) {
		t.Fatal("QR image does not encode the attendee token")
	}

	other := user
	other.Token = "xyz789"
	otherHTML, err := Render(RenderInput{Template: tpl, Event: testEvent(), User: other, Mode: ModePrint})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(otherHTML, want) {
		t.Fatal("distinct tokens must produce distinct QR images")
	}
}

func TestRenderDisabledSlotsNeverAppear(t *testing.T) {
	tpl := NewCustomTemplate("NameAndQROnly")
	tpl.Slots.Photo.Enabled = false
	tpl.Slots.Company.Enabled = false
	tpl.Slots.Title.Enabled = false

	html, err := Render(RenderInput{Template: tpl, Event: testEvent(), User: testUser(), Mode: ModePrint})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Jane Doe") {
		t.Fatal("expected name slot in output")
	}
	if !strings.Contains(html, "data:image/png;base64,") {
		t.Fatal("expected QR slot in output")
	}
	if strings.Contains(html, "Acme Corp") || strings.Contains(html, "Engineer") {
		t.Fatal("disabled slots must not render")
	}
	// 仅剩姓名与二维码两个槽位。
	if got := len(slotPositions(t, html)); got != 2 {
		t.Fatalf("expected 2 positioned slots, got %d", got)
	}
}

func TestRenderMissingPhotoFallsBackToInitials(t *testing.T) {
	tpl := NewCustomTemplate("NoPhoto")
	user := testUser()
	user.PhotoDataURI = ""

	html, err := Render(RenderInput{Template: tpl, Event: testEvent(), User: user, Mode: ModePrint})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, ">JD<") {
		t.Fatal("expected initials avatar for missing photo")
	}
}

func TestRenderFrameColorsByKind(t *testing.T) {
	custom := NewCustomTemplate("Custom")
	custom.HeaderColor = "#123456"
	custom.FooterColor = "#654321"

	html, err := Render(RenderInput{Template: custom, Event: testEvent(), User: testUser(), Mode: ModePrint})
	if err != nil {
		t.Fatalf("render custom: %v", err)
	}
	if !strings.Contains(html, "#123456") || !strings.Contains(html, "#654321") {
		t.Fatal("custom template must use its own frame colors")
	}
	if strings.Contains(html, "#0044cc") {
		t.Fatal("custom template must ignore event brand colors")
	}

	predefined := NewCustomTemplate("Predefined")
	predefined.Kind = KindPredefined
	predefined.HeaderColor = "#123456"
	predefined.FooterColor = "#654321"

	html, err = Render(RenderInput{Template: predefined, Event: testEvent(), User: testUser(), Mode: ModePrint})
	if err != nil {
		t.Fatalf("render predefined: %v", err)
	}
	if !strings.Contains(html, "#0044cc") || !strings.Contains(html, "#ffaa00") {
		t.Fatal("predefined template must resolve frame colors from event brand")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	tpl := NewCustomTemplate("Stable")
	in := RenderInput{Template: tpl, Event: testEvent(), User: testUser(), Mode: ModePrint}

	first, err := Render(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := Render(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if first != second {
		t.Fatal("render must be pure: identical inputs produced different output")
	}
}

func TestInitials(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Jane Doe", "JD"},
		{"Madonna", "M"},
		{"  ", "?"},
		{"jean claude van damme", "JC"},
	}
	for _, tc := range cases {
		if got := initials(tc.name); got != tc.want {
			t.Fatalf("initials(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

package badge

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Mode selects between editor-preview rendering (literal placeholder text) and
// print rendering (bound attendee values). Slot geometry is identical in both:
// what you see in the editor is what prints.
type Mode string

const (
	ModePreview Mode = "preview"
	ModePrint   Mode = "print"
)

// EventContext carries the event fields the renderer may bind. Predefined
// templates resolve their header/footer colors from the brand colors here.
type EventContext struct {
	Name           string
	BrandPrimary   string
	BrandSecondary string
}

// UserContext carries one attendee's data for print-mode rendering.
// PhotoDataURI is resolved by the caller; an empty value falls back to an
// initials avatar rather than an error.
type UserContext struct {
	FullName     string
	Company      string
	Title        string
	Token        string
	PhotoDataURI string
}

// RenderInput 是渲染一张徽章所需的全部输入。
type RenderInput struct {
	Template        Template
	Event           EventContext
	User            UserContext
	Mode            Mode
	BackgroundImage string // resolved background data URI, optional
}

const (
	placeholderName    = "Name"
	placeholderCompany = "Company"
	placeholderTitle   = "Title"
	placeholderToken   = "SAMPLE"

	frameBandHeightPx = 22.0
)

type slotView struct {
	Kind        string // "text" | "image"
	Style       template.CSS
	Text        string
	ImageSrc    template.URL
	Placeholder string
}

type badgeView struct {
	WidthPx     float64
	HeightPx    float64
	CanvasStyle template.CSS
	HeaderStyle template.CSS
	FooterStyle template.CSS
	Slots       []slotView
}

var badgeTmpl = template.Must(template.New("badge").Parse(badgeTemplateString))

// Render produces the HTML for one badge. It is a pure function of its input
// and never fails for missing optional attendee data; photo and QR slots fall
// back to placeholders instead.
func Render(in RenderInput) (string, error) {
	view := buildView(in)
	var buf bytes.Buffer
	if err := badgeTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render badge %q: %w", in.Template.Name, err)
	}
	return buf.String(), nil
}

func buildView(in RenderInput) badgeView {
	t := in.Template
	width, height := t.CanvasSize()
	header, footer := frameColors(t, in.Event)

	view := badgeView{
		WidthPx:     width,
		HeightPx:    height,
		CanvasStyle: canvasStyle(width, height, t.Background, in.BackgroundImage),
		HeaderStyle: template.CSS(fmt.Sprintf("height:%.0fpx;background:%s;", frameBandHeightPx, header)),
		FooterStyle: template.CSS(fmt.Sprintf("height:%.0fpx;background:%s;", frameBandHeightPx, footer)),
	}

	// 槽位按固定顺序绘制：照片在最底层，二维码在最上层。
	if t.Slots.Photo.Enabled {
		view.Slots = append(view.Slots, photoSlotView(t.Slots.Photo, in))
	}
	if t.Slots.Name.Enabled {
		view.Slots = append(view.Slots, textSlotView(t.Slots.Name, textValue(in.Mode, in.User.FullName, placeholderName)))
	}
	if t.Slots.Company.Enabled {
		view.Slots = append(view.Slots, textSlotView(t.Slots.Company, textValue(in.Mode, in.User.Company, placeholderCompany)))
	}
	if t.Slots.Title.Enabled {
		view.Slots = append(view.Slots, textSlotView(t.Slots.Title, textValue(in.Mode, in.User.Title, placeholderTitle)))
	}
	if t.Slots.QRCode.Enabled {
		view.Slots = append(view.Slots, qrSlotView(t.Slots.QRCode, in))
	}

	return view
}

// frameColors 解析页眉/页脚颜色：预置模板取活动品牌色，自定义模板取模板自身颜色。
func frameColors(t Template, ev EventContext) (header, footer string) {
	if t.Kind == KindPredefined {
		header = ev.BrandPrimary
		footer = ev.BrandSecondary
		if footer == "" {
			footer = header
		}
	} else {
		header = t.HeaderColor
		footer = t.FooterColor
	}
	if header == "" {
		header = "#1f2937"
	}
	if footer == "" {
		footer = header
	}
	return header, footer
}

func canvasStyle(width, height float64, bg *Background, image string) template.CSS {
	var b strings.Builder
	fmt.Fprintf(&b, "width:%.2fpx;height:%.2fpx;", width, height)
	color := "#ffffff"
	if bg != nil && bg.Color != "" {
		color = bg.Color
	}
	fmt.Fprintf(&b, "background-color:%s;", color)
	if image != "" {
		fmt.Fprintf(&b, "background-image:url('%s');background-size:cover;background-position:center;", image)
	}
	return template.CSS(b.String())
}

func textValue(mode Mode, bound, placeholder string) string {
	if mode == ModePreview {
		return placeholder
	}
	if strings.TrimSpace(bound) == "" {
		return placeholder
	}
	return bound
}

func textSlotView(slot TextSlot, value string) slotView {
	style := fmt.Sprintf(
		"left:%.2fpx;top:%.2fpx;font-size:%.2fpx;color:%s;text-align:%s;transform:%s;",
		slot.Position.X, slot.Position.Y, slot.SizePx, slot.Color, alignText(slot.Alignment), alignTransform(slot.Alignment),
	)
	return slotView{Kind: "text", Style: template.CSS(style), Text: value}
}

func imageSlotStyle(slot ImageSlot) template.CSS {
	return template.CSS(fmt.Sprintf(
		"left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;transform:%s;",
		slot.Position.X, slot.Position.Y, slot.Size.Width, slot.Size.Height, alignTransform(slot.Alignment),
	))
}

func photoSlotView(slot ImageSlot, in RenderInput) slotView {
	view := slotView{Kind: "image", Style: imageSlotStyle(slot)}
	if in.Mode == ModePrint && in.User.PhotoDataURI != "" {
		view.ImageSrc = template.URL(in.User.PhotoDataURI)
		return view
	}
	view.Placeholder = initials(textValue(in.Mode, in.User.FullName, placeholderName))
	return view
}

func qrSlotView(slot ImageSlot, in RenderInput) slotView {
	view := slotView{Kind: "image", Style: imageSlotStyle(slot)}
	payload := placeholderToken
	if in.Mode == ModePrint && strings.TrimSpace(in.User.Token) != "" {
		payload = in.User.Token
	}
	if src, ok := qrDataURI(payload, int(slot.Size.Width)); ok {
		view.ImageSrc = src
		return view
	}
	view.Placeholder = "QR"
	return view
}

// qrDataURI 将载荷编码为二维码 PNG data URI。编码失败时回退到占位块。
func qrDataURI(payload string, sizePx int) (template.URL, bool) {
	if sizePx < 32 {
		sizePx = 32
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, sizePx)
	if err != nil {
		return "", false
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), true
}

// initials 取姓名前两个词的首字母作为头像占位。
func initials(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "?"
	}
	var b strings.Builder
	for i, f := range fields {
		if i >= 2 {
			break
		}
		runes := []rune(f)
		b.WriteString(strings.ToUpper(string(runes[0])))
	}
	return b.String()
}

func alignText(a Alignment) string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

func alignTransform(a Alignment) string {
	switch a {
	case AlignCenter:
		return "translateX(-50%)"
	case AlignRight:
		return "translateX(-100%)"
	default:
		return "none"
	}
}

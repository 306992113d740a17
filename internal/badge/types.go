package badge

import "github.com/google/uuid"

// DPI converts template inches to canvas pixels. Editor preview and print
// rendering share this constant; changing it rescales both sides together.
const DPI = 96.0

// Kind 区分预置模板与用户自定义模板。
type Kind string

const (
	KindPredefined Kind = "predefined"
	KindCustom     Kind = "custom"
)

// Alignment 表示槽位的水平对齐方式。
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Position 是槽位锚点在模板画布上的像素坐标。
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimensions 表示图像类槽位的像素尺寸。
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextSlot is an independently positioned text region (name, company, title).
// A disabled slot renders nothing and has no effect on other slots.
type TextSlot struct {
	Enabled   bool      `json:"enabled"`
	SizePx    float64   `json:"size_px"`
	Color     string    `json:"color"`
	Alignment Alignment `json:"alignment"`
	Position  Position  `json:"position"`
}

// ImageSlot is an independently positioned image region (photo, QR code).
type ImageSlot struct {
	Enabled   bool       `json:"enabled"`
	Size      Dimensions `json:"size"`
	Alignment Alignment  `json:"alignment"`
	Position  Position   `json:"position"`
}

// Background 描述模板的背景：纯色或已上传的背景图。
type Background struct {
	Color    string `json:"color,omitempty"`
	ImageKey string `json:"image_key,omitempty"`
}

// Slots 是徽章的固定命名槽位集合。
type Slots struct {
	Photo   ImageSlot `json:"photo"`
	Name    TextSlot  `json:"name"`
	Company TextSlot  `json:"company"`
	Title   TextSlot  `json:"title"`
	QRCode  ImageSlot `json:"qr_code"`
}

// Template 是存储在 Template.Content(JSONB) 中的徽章布局数据。
// WidthIn/HeightIn 是物理尺寸（英寸），仅用于缩放画布。
type Template struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Kind        Kind        `json:"kind"`
	WidthIn     float64     `json:"width_in"`
	HeightIn    float64     `json:"height_in"`
	Background  *Background `json:"background,omitempty"`
	HeaderColor string      `json:"header_color,omitempty"`
	FooterColor string      `json:"footer_color,omitempty"`
	Slots       Slots       `json:"slots"`
}

// CanvasSize 返回画布的像素宽高。
func (t Template) CanvasSize() (width, height float64) {
	return t.WidthIn * DPI, t.HeightIn * DPI
}

// NewCustomTemplate returns an editable badge template with every slot enabled
// and laid out for a 3x4 inch portrait badge.
func NewCustomTemplate(name string) Template {
	return Template{
		ID:          uuid.NewString(),
		Name:        name,
		Kind:        KindCustom,
		WidthIn:     3,
		HeightIn:    4,
		HeaderColor: "#1f2937",
		FooterColor: "#1f2937",
		Slots: Slots{
			Photo: ImageSlot{
				Enabled:   true,
				Size:      Dimensions{Width: 96, Height: 96},
				Alignment: AlignCenter,
				Position:  Position{X: 144, Y: 64},
			},
			Name: TextSlot{
				Enabled:   true,
				SizePx:    24,
				Color:     "#111827",
				Alignment: AlignCenter,
				Position:  Position{X: 144, Y: 184},
			},
			Company: TextSlot{
				Enabled:   true,
				SizePx:    16,
				Color:     "#374151",
				Alignment: AlignCenter,
				Position:  Position{X: 144, Y: 222},
			},
			Title: TextSlot{
				Enabled:   true,
				SizePx:    14,
				Color:     "#6b7280",
				Alignment: AlignCenter,
				Position:  Position{X: 144, Y: 248},
			},
			QRCode: ImageSlot{
				Enabled:   true,
				Size:      Dimensions{Width: 88, Height: 88},
				Alignment: AlignCenter,
				Position:  Position{X: 144, Y: 280},
			},
		},
	}
}

package worker

import (
	"bytes"
	"fmt"
	"html/template"
)

// A4 @ 96 DPI 与固定页边距。徽章在页内居中，等比缩放到页边距以内。
const (
	a4WidthPx    = 794.0
	a4HeightPx   = 1122.0
	pageMarginPx = 56.0
)

// RenderedBadge 是单张徽章的渲染结果及其画布尺寸。
type RenderedBadge struct {
	HTML     string
	WidthPx  float64
	HeightPx float64
}

type sheetPage struct {
	Badge template.HTML
	Scale float64
}

type sheetView struct {
	Pages []sheetPage
}

// sheetTemplateString 将多张徽章排成打印文档：A4 纵向，一页一张，
// 强制分页，禁用浏览器默认页眉页边距。
const sheetTemplateString = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  @page { size: A4 portrait; margin: 0; }
  html, body { margin: 0; padding: 0; background: white; }
  .badge-page {
    width: 794px;
    height: 1122px;
    display: flex;
    align-items: center;
    justify-content: center;
    page-break-after: always;
    box-sizing: border-box;
    overflow: hidden;
  }
  .badge-page:last-child { page-break-after: auto; }
</style>
</head>
<body>
{{- range .Pages}}
  <div class="badge-page"><div style="transform:scale({{printf "%.4f" .Scale}});transform-origin:center center;">{{.Badge}}</div></div>
{{- end}}
</body>
</html>
`

var sheetTmpl = template.Must(template.New("sheet").Parse(sheetTemplateString))

// ComposeSheet 组装整批徽章的打印文档。页序与输入顺序一致，不做任何重排。
func ComposeSheet(badges []RenderedBadge) (string, error) {
	view := sheetView{Pages: make([]sheetPage, 0, len(badges))}
	for _, b := range badges {
		view.Pages = append(view.Pages, sheetPage{
			Badge: template.HTML(b.HTML),
			Scale: fitScale(b.WidthPx, b.HeightPx),
		})
	}

	var buf bytes.Buffer
	if err := sheetTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("compose badge sheet: %w", err)
	}
	return buf.String(), nil
}

// fitScale 计算徽章等比缩放系数：放大到页边距以内，保持纵横比，不放大超过 1。
func fitScale(widthPx, heightPx float64) float64 {
	if widthPx <= 0 || heightPx <= 0 {
		return 1
	}
	availW := a4WidthPx - 2*pageMarginPx
	availH := a4HeightPx - 2*pageMarginPx
	scale := availW / widthPx
	if s := availH / heightPx; s < scale {
		scale = s
	}
	if scale > 1 {
		return 1
	}
	return scale
}

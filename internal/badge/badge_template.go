package badge

// badgeTemplateString 是单张徽章的 HTML 模板。
// 槽位使用绝对定位：禁用的槽位不渲染，也不影响其它槽位的位置。
// 编辑器预览与打印视图都由它生成，保证两侧像素一致。
const badgeTemplateString = `<div class="badge-canvas" style="position:relative;overflow:hidden;box-sizing:border-box;{{.CanvasStyle}}">
  <div class="badge-header" style="position:absolute;top:0;left:0;right:0;{{.HeaderStyle}}"></div>
  <div class="badge-footer" style="position:absolute;bottom:0;left:0;right:0;{{.FooterStyle}}"></div>
{{- range .Slots}}
{{- if eq .Kind "text"}}
  <div class="badge-slot badge-slot-text" style="position:absolute;white-space:nowrap;{{.Style}}">{{.Text}}</div>
{{- else}}
  <div class="badge-slot badge-slot-image" style="position:absolute;{{.Style}}">
{{- if .ImageSrc}}
    <img src="{{.ImageSrc}}" style="width:100%;height:100%;object-fit:cover;border-radius:4px;" />
{{- else}}
    <div class="badge-slot-placeholder" style="width:100%;height:100%;display:flex;align-items:center;justify-content:center;background:#e5e7eb;color:#6b7280;border-radius:4px;font-family:sans-serif;">{{.Placeholder}}</div>
{{- end}}
  </div>
{{- end}}
{{- end}}
</div>
`

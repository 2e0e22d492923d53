package emailbuilder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnsubscribeToken is the merge token the footer always carries. It is
// resolved by the send pipeline, never by this compiler.
const UnsubscribeToken = "{{unsubscribe_url}}"

// escaper covers the four characters that matter inside double-quoted
// attribute values and text nodes of the email HTML dialect.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// esc escapes a plain-text property before it is placed into an attribute or
// text node. Rich-text props (text.html, footer.html, columns[].html) bypass
// this; they are a deliberate trust boundary and are inserted verbatim.
func esc(s string) string {
	return escaper.Replace(s)
}

func strOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}

// intOr resolves an optional numeric prop, substituting the fallback when
// the value is absent or negative so the output never carries a negative or
// NaN dimension.
func intOr(p *int, fallback int) int {
	if p == nil || *p < 0 {
		return fallback
	}
	return *p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RenderDocument compiles a document with its own settings and preheader.
func RenderDocument(doc Document) string {
	return Render(doc.Blocks, doc.Settings, doc.Preheader)
}

// Render compiles an ordered block list into a complete HTML email document.
// It is pure and deterministic: identical input produces byte-identical
// output, missing optional fields resolve to documented defaults, and
// unrecognized block types render as empty fragments rather than failing the
// whole document.
func Render(blocks []Block, settings TemplateSettings, preheader string) string {
	s := settings.withDefaults()

	var rows strings.Builder
	for _, b := range blocks {
		rows.WriteString(renderBlock(b, s))
	}

	return documentShell(rows.String(), s, preheader)
}

func renderBlock(b Block, s TemplateSettings) string {
	switch b.Type {
	case BlockHeader:
		p, _ := b.Props.(*HeaderProps)
		return renderHeader(p)
	case BlockHeading:
		p, _ := b.Props.(*HeadingProps)
		return renderHeading(p)
	case BlockText:
		p, _ := b.Props.(*TextProps)
		return renderText(p)
	case BlockImage:
		p, _ := b.Props.(*ImageProps)
		return renderImage(p, s)
	case BlockButton:
		p, _ := b.Props.(*ButtonProps)
		return renderButton(p, s)
	case BlockDivider:
		p, _ := b.Props.(*DividerProps)
		return renderDivider(p)
	case BlockSpacer:
		p, _ := b.Props.(*SpacerProps)
		return renderSpacer(p)
	case BlockColumns:
		p, _ := b.Props.(*ColumnsProps)
		return renderColumns(p, s)
	case BlockSocial:
		p, _ := b.Props.(*SocialProps)
		return renderSocial(p)
	case BlockFooter:
		p, _ := b.Props.(*FooterProps)
		return renderFooter(p)
	default:
		// Forward compatibility: documents saved by a newer build may carry
		// block types this build does not know. Skip them.
		return ""
	}
}

func renderHeader(p *HeaderProps) string {
	if p == nil {
		p = &HeaderProps{}
	}
	bg := strOr(p.BackgroundColor, "#18181b")
	textColor := strOr(p.TextColor, "#ffffff")
	align := alignmentOr(p.Alignment, AlignCenter)
	logo := strOr(p.LogoURL, "")
	title := strOr(p.Title, "")

	var sb strings.Builder
	sb.WriteString(`<tr><td style="background-color:` + esc(bg) + `;padding:32px;text-align:` + align + `;">`)
	if logo != "" {
		width := intOr(p.LogoWidth, 120)
		if width == 0 {
			width = 120
		}
		sb.WriteString(`<img src="` + esc(logo) + `" alt="` + esc(strOr(p.LogoAlt, "")) + `" width="` + strconv.Itoa(width) + `" style="display:inline-block;width:` + strconv.Itoa(width) + `px;max-width:100%;height:auto;border:0;">`)
	}
	if title != "" {
		sb.WriteString(`<h1 style="margin:` + headerTitleMargin(logo) + `;font-size:24px;font-weight:bold;line-height:1.3;color:` + esc(textColor) + `;">` + esc(title) + `</h1>`)
	}
	sb.WriteString(`</td></tr>`)
	return sb.String()
}

func headerTitleMargin(logo string) string {
	if logo != "" {
		return "16px 0 0"
	}
	return "0"
}

func renderHeading(p *HeadingProps) string {
	if p == nil {
		p = &HeadingProps{}
	}
	tag, size := "h1", 28
	if strOr(p.Level, "h1") == "h2" {
		tag, size = "h2", 20
	}
	color := strOr(p.Color, "#18181b")
	align := alignmentOr(p.Alignment, AlignLeft)

	return `<tr><td style="padding:24px 32px 8px;"><` + tag + ` style="margin:0;font-size:` + strconv.Itoa(size) + `px;font-weight:bold;line-height:1.3;color:` + esc(color) + `;text-align:` + align + `;">` + esc(strOr(p.Text, "")) + `</` + tag + `></td></tr>`
}

func renderText(p *TextProps) string {
	if p == nil {
		p = &TextProps{}
	}
	color := strOr(p.Color, "#3f3f46")
	align := alignmentOr(p.Alignment, AlignLeft)

	// The html prop is trusted rich text from the editor; inserted verbatim.
	return `<tr><td style="padding:8px 32px;font-size:16px;line-height:1.6;color:` + esc(color) + `;text-align:` + align + `;">` + strOr(p.HTML, "") + `</td></tr>`
}

func renderImage(p *ImageProps, s TemplateSettings) string {
	if p == nil {
		p = &ImageProps{}
	}
	src := strOr(p.Src, "")
	if src == "" {
		// An image without a source renders nothing. Intentional, not an error.
		return ""
	}

	maxWidth := s.ContentWidth - contentGutter
	width := intOr(p.Width, maxWidth)
	if width == 0 || width > maxWidth {
		width = maxWidth
	}
	align := alignmentOr(p.Alignment, AlignCenter)

	img := `<img src="` + esc(src) + `" alt="` + esc(strOr(p.Alt, "")) + `" width="` + strconv.Itoa(width) + `" style="display:block;margin:` + blockMargin(align) + `;width:` + strconv.Itoa(width) + `px;max-width:100%;height:auto;border:0;">`
	if href := strOr(p.Href, ""); href != "" {
		img = `<a href="` + esc(href) + `" target="_blank">` + img + `</a>`
	}

	return `<tr><td align="` + align + `" style="padding:16px 32px;">` + img + `</td></tr>`
}

// blockMargin positions a display:block element inside its cell.
func blockMargin(align string) string {
	switch align {
	case AlignCenter:
		return "0 auto"
	case AlignRight:
		return "0 0 0 auto"
	default:
		return "0"
	}
}

func renderButton(p *ButtonProps, s TemplateSettings) string {
	if p == nil {
		p = &ButtonProps{}
	}
	text := strOr(p.Text, "Button")
	href := strOr(p.Href, "#")
	bg := strOr(p.BackgroundColor, "#4f46e5")
	textColor := strOr(p.TextColor, "#ffffff")
	radius := clamp(intOr(p.BorderRadius, 6), 0, 50)
	fullWidth := p.FullWidth != nil && *p.FullWidth
	align := alignmentOr(p.Alignment, AlignCenter)

	// Outlook cannot round the corners of an anchor, so MSO clients get a
	// VML roundrect and everyone else gets a styled anchor. Exactly one of
	// the two renders in any given client.
	arcsize := int(math.Round(float64(radius) / 22.0 * 100))

	vmlWidth := 220
	display := "inline-block"
	if fullWidth {
		vmlWidth = s.ContentWidth - contentGutter
		display = "block"
	}

	var sb strings.Builder
	sb.WriteString(`<tr><td align="` + align + `" style="padding:16px 32px;">`)
	sb.WriteString(`<!--[if mso]>`)
	sb.WriteString(`<v:roundrect xmlns:v="urn:schemas-microsoft-com:vml" xmlns:w="urn:schemas-microsoft-com:office:word" href="` + esc(href) + `" style="height:44px;v-text-anchor:middle;width:` + strconv.Itoa(vmlWidth) + `px;" arcsize="` + strconv.Itoa(arcsize) + `%" stroke="f" fillcolor="` + esc(bg) + `">`)
	sb.WriteString(`<w:anchorlock/>`)
	sb.WriteString(`<center style="color:` + esc(textColor) + `;font-size:16px;font-weight:bold;">` + esc(text) + `</center>`)
	sb.WriteString(`</v:roundrect>`)
	sb.WriteString(`<![endif]-->`)
	sb.WriteString(`<!--[if !mso]><!-->`)
	sb.WriteString(`<a href="` + esc(href) + `" target="_blank" style="display:` + display + `;background-color:` + esc(bg) + `;border-radius:` + strconv.Itoa(radius) + `px;color:` + esc(textColor) + `;font-size:16px;font-weight:bold;line-height:44px;text-align:center;text-decoration:none;padding:0 32px;mso-hide:all;">` + esc(text) + `</a>`)
	sb.WriteString(`<!--<![endif]-->`)
	sb.WriteString(`</td></tr>`)
	return sb.String()
}

func renderDivider(p *DividerProps) string {
	if p == nil {
		p = &DividerProps{}
	}
	color := strOr(p.Color, "#e4e4e7")
	thickness := clamp(intOr(p.Thickness, 1), 1, 10)
	style := strOr(p.Style, "solid")
	switch style {
	case "solid", "dashed", "dotted":
	default:
		style = "solid"
	}
	padding := intOr(p.Padding, 16)

	return `<tr><td style="padding:` + strconv.Itoa(padding) + `px 32px;"><hr style="border:none;border-top:` + strconv.Itoa(thickness) + `px ` + style + ` ` + esc(color) + `;margin:0;"></td></tr>`
}

func renderSpacer(p *SpacerProps) string {
	if p == nil {
		p = &SpacerProps{}
	}
	height := clamp(intOr(p.Height, 32), 8, 120)
	h := strconv.Itoa(height)

	// font-size:0 plus an nbsp keeps the cell from collapsing in clients
	// that strip empty cells.
	return `<tr><td height="` + h + `" style="height:` + h + `px;font-size:0;line-height:0;">&nbsp;</td></tr>`
}

// parseRatio splits a ratio string like "33-67" into its positive integer
// segments. Unparseable or non-positive segments are dropped.
func parseRatio(ratio string) []int {
	var parts []int
	for _, seg := range strings.Split(ratio, "-") {
		n, err := strconv.Atoi(strings.TrimSpace(seg))
		if err != nil || n <= 0 {
			continue
		}
		parts = append(parts, n)
	}
	return parts
}

// columnWidths splits the usable width proportionally by the ratio parts.
// The split is lenient about a ratio/column-count mismatch: the total is the
// sum of whatever parts exist, columns beyond the ratio get zero weight, and
// a ratio with no usable parts falls back to an even split.
func columnWidths(count, usable int, parts []int) []int {
	widths := make([]int, count)
	total := 0
	for i := 0; i < count && i < len(parts); i++ {
		total += parts[i]
	}
	if total == 0 {
		for i := range widths {
			widths[i] = usable / count
		}
		return widths
	}
	for i := range widths {
		part := 0
		if i < len(parts) {
			part = parts[i]
		}
		widths[i] = int(math.Round(float64(usable) * float64(part) / float64(total)))
	}
	return widths
}

func renderColumns(p *ColumnsProps, s TemplateSettings) string {
	if p == nil {
		p = &ColumnsProps{}
	}
	count := len(p.Columns)
	if count == 0 {
		return ""
	}
	gap := intOr(p.Gap, 16)
	usable := s.ContentWidth - contentGutter - gap*(count-1)
	if usable < 0 {
		usable = 0
	}
	widths := columnWidths(count, usable, parseRatio(strOr(p.Ratio, "")))

	tableWidth := usable + gap*(count-1)

	var sb strings.Builder
	sb.WriteString(`<tr><td style="padding:8px 32px;">`)
	// Outlook ignores max-width, so it gets a fixed-layout table at the
	// exact pixel width while other clients get a fluid one.
	sb.WriteString(`<!--[if mso]><table role="presentation" width="` + strconv.Itoa(tableWidth) + `" cellpadding="0" cellspacing="0" border="0" style="table-layout:fixed;"><tr><![endif]-->`)
	sb.WriteString(`<!--[if !mso]><!--><table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0"><tr><!--<![endif]-->`)
	for i, col := range p.Columns {
		if i > 0 && gap > 0 {
			sb.WriteString(`<td width="` + strconv.Itoa(gap) + `" style="width:` + strconv.Itoa(gap) + `px;font-size:0;line-height:0;">&nbsp;</td>`)
		}
		w := strconv.Itoa(widths[i])
		// Column html is trusted rich text; inserted verbatim.
		sb.WriteString(`<td class="email-column" width="` + w + `" style="width:` + w + `px;vertical-align:top;font-size:16px;line-height:1.6;">` + col.HTML + `</td>`)
	}
	sb.WriteString(`</tr></table>`)
	sb.WriteString(`</td></tr>`)
	return sb.String()
}

// socialIconURLs maps a platform to its hosted icon. Platforms outside the
// table fall back to a generic link icon.
var socialIconURLs = map[string]string{
	"facebook":  "https://static.stagepass.io/icons/social/facebook.png",
	"twitter":   "https://static.stagepass.io/icons/social/twitter.png",
	"instagram": "https://static.stagepass.io/icons/social/instagram.png",
	"linkedin":  "https://static.stagepass.io/icons/social/linkedin.png",
	"youtube":   "https://static.stagepass.io/icons/social/youtube.png",
	"website":   "https://static.stagepass.io/icons/social/website.png",
}

const socialIconFallbackURL = "https://static.stagepass.io/icons/social/link.png"

func socialIconURL(platform string) string {
	if url, ok := socialIconURLs[platform]; ok {
		return url
	}
	return socialIconFallbackURL
}

func renderSocial(p *SocialProps) string {
	if p == nil {
		p = &SocialProps{}
	}
	var links []SocialLink
	for _, l := range p.Links {
		if l.URL != "" {
			links = append(links, l)
		}
	}
	if len(links) == 0 {
		return ""
	}

	size := intOr(p.IconSize, 24)
	if size == 0 {
		size = 24
	}
	align := alignmentOr(p.Alignment, AlignCenter)

	var sb strings.Builder
	sb.WriteString(`<tr><td align="` + align + `" style="padding:16px 32px;">`)
	for _, l := range links {
		sb.WriteString(`<a href="` + esc(l.URL) + `" target="_blank" style="display:inline-block;margin:0 6px;text-decoration:none;">`)
		sb.WriteString(`<img src="` + socialIconURL(l.Platform) + `" alt="` + esc(l.Platform) + `" width="` + strconv.Itoa(size) + `" height="` + strconv.Itoa(size) + `" style="display:block;border:0;">`)
		sb.WriteString(`</a>`)
	}
	sb.WriteString(`</td></tr>`)
	return sb.String()
}

func renderFooter(p *FooterProps) string {
	if p == nil {
		p = &FooterProps{}
	}
	color := strOr(p.Color, "#71717a")
	bg := strOr(p.BackgroundColor, "#f4f4f5")
	align := alignmentOr(p.Alignment, AlignCenter)

	var sb strings.Builder
	sb.WriteString(`<tr><td style="background-color:` + esc(bg) + `;padding:32px;font-size:12px;line-height:1.6;color:` + esc(color) + `;text-align:` + align + `;">`)
	if html := strOr(p.HTML, ""); html != "" {
		// Trusted rich text; inserted verbatim.
		sb.WriteString(html)
	} else {
		if company := strOr(p.CompanyName, ""); company != "" {
			sb.WriteString(`<p style="margin:0;"><strong>` + esc(company) + `</strong></p>`)
		}
		if address := strOr(p.Address, ""); address != "" {
			sb.WriteString(`<p style="margin:4px 0 0;">` + esc(address) + `</p>`)
		}
	}
	// Anti-spam compliance: the unsubscribe line is appended no matter what
	// the block is configured with. The token is resolved at send time.
	sb.WriteString(`<p style="margin:12px 0 0;"><a href="` + UnsubscribeToken + `" style="color:` + esc(color) + `;text-decoration:underline;">Unsubscribe</a></p>`)
	sb.WriteString(`</td></tr>`)
	return sb.String()
}

func alignmentOr(p *string, fallback string) string {
	switch strOr(p, "") {
	case AlignLeft, AlignCenter, AlignRight:
		return *p
	default:
		return fallback
	}
}

// documentShell wraps the concatenated block rows in the fixed email
// document frame: head with reset styles and the mobile breakpoint, hidden
// preheader, and the dual MSO/non-MSO width strategy for the content table.
func documentShell(rows string, s TemplateSettings, preheader string) string {
	width := strconv.Itoa(s.ContentWidth)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(`<html lang="en" xmlns="http://www.w3.org/1999/xhtml" xmlns:v="urn:schemas-microsoft-com:vml" xmlns:o="urn:schemas-microsoft-com:office:office">` + "\n")
	sb.WriteString("<head>\n")
	sb.WriteString(`<meta charset="utf-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	sb.WriteString(`<meta http-equiv="X-UA-Compatible" content="IE=edge">` + "\n")
	sb.WriteString(`<meta name="x-apple-disable-message-reformatting">` + "\n")
	sb.WriteString("<!--[if mso]>\n<noscript>\n<xml>\n<o:OfficeDocumentSettings>\n<o:PixelsPerInch>96</o:PixelsPerInch>\n</o:OfficeDocumentSettings>\n</xml>\n</noscript>\n<![endif]-->\n")
	sb.WriteString("<style>\n")
	sb.WriteString("body{margin:0;padding:0;-webkit-text-size-adjust:100%;-ms-text-size-adjust:100%;}\n")
	sb.WriteString("table{border-collapse:collapse;mso-table-lspace:0pt;mso-table-rspace:0pt;}\n")
	sb.WriteString("img{border:0;line-height:100%;outline:none;text-decoration:none;-ms-interpolation-mode:bicubic;}\n")
	sb.WriteString("p{margin:0 0 1em;}\np:last-child{margin-bottom:0;}\n")
	sb.WriteString("@media only screen and (max-width: 620px){\n")
	sb.WriteString(".email-container{width:100% !important;max-width:100% !important;}\n")
	sb.WriteString(".email-column{display:block !important;width:100% !important;}\n")
	sb.WriteString("}\n")
	sb.WriteString("</style>\n")
	sb.WriteString("</head>\n")
	sb.WriteString(`<body style="margin:0;padding:0;word-spacing:normal;background-color:` + esc(s.BackgroundColor) + `;">` + "\n")
	if preheader != "" {
		sb.WriteString(`<div style="display:none;font-size:1px;line-height:1px;max-height:0;max-width:0;opacity:0;overflow:hidden;mso-hide:all;">` + esc(preheader) + `</div>` + "\n")
	}
	// Outer full-width table carries the background color for clients that
	// ignore it on body.
	sb.WriteString(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0" style="background-color:` + esc(s.BackgroundColor) + `;">` + "\n")
	sb.WriteString(`<tr><td align="center" style="padding:24px 12px;">` + "\n")
	sb.WriteString(fmt.Sprintf("<!--[if mso]><table role=\"presentation\" width=\"%s\" cellpadding=\"0\" cellspacing=\"0\" border=\"0\"><tr><td><![endif]-->\n", width))
	sb.WriteString(`<!--[if !mso]><!--><table role="presentation" class="email-container" width="100%" cellpadding="0" cellspacing="0" border="0" style="max-width:` + width + `px;"><tr><td><!--<![endif]-->` + "\n")
	sb.WriteString(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0" style="background-color:#ffffff;font-family:` + esc(s.FontFamily) + `;">` + "\n")
	sb.WriteString(rows)
	sb.WriteString("\n</table>\n")
	sb.WriteString("</td></tr></table>\n")
	sb.WriteString("</td></tr>\n")
	sb.WriteString("</table>\n")
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

package emailbuilder

import "github.com/google/uuid"

// Rendering defaults. The renderer falls back to these whenever a document
// omits a value; DefaultProps seeds the editor with the same values so a
// fresh block renders identically before and after a save round trip.
const (
	DefaultBackgroundColor = "#f4f4f5"
	DefaultContentWidth    = 600
	DefaultFontFamily      = "Arial, 'Helvetica Neue', Helvetica, sans-serif"

	minContentWidth = 400
	maxContentWidth = 800

	// Horizontal gutter inside the content table (32px each side).
	contentGutter = 64
)

// DefaultSettings returns the settings a new template starts with.
func DefaultSettings() TemplateSettings {
	return TemplateSettings{
		BackgroundColor: DefaultBackgroundColor,
		ContentWidth:    DefaultContentWidth,
		FontFamily:      DefaultFontFamily,
	}
}

// withDefaults resolves absent or out-of-range settings to the documented
// defaults. Provided values win; the content width is clamped to 400-800.
func (s TemplateSettings) withDefaults() TemplateSettings {
	if s.BackgroundColor == "" {
		s.BackgroundColor = DefaultBackgroundColor
	}
	if s.ContentWidth == 0 {
		s.ContentWidth = DefaultContentWidth
	}
	if s.ContentWidth < minContentWidth {
		s.ContentWidth = minContentWidth
	}
	if s.ContentWidth > maxContentWidth {
		s.ContentWidth = maxContentWidth
	}
	if s.FontFamily == "" {
		s.FontFamily = DefaultFontFamily
	}
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

// DefaultProps returns the starting property set for a block type, matching
// the renderer's fallbacks. Unknown types get an empty raw map.
func DefaultProps(t BlockType) Props {
	switch t {
	case BlockHeader:
		return &HeaderProps{
			Title:           strPtr("Your organization"),
			BackgroundColor: strPtr("#18181b"),
			TextColor:       strPtr("#ffffff"),
			Alignment:       strPtr(AlignCenter),
		}
	case BlockHeading:
		return &HeadingProps{
			Text:      strPtr("Heading"),
			Level:     strPtr("h1"),
			Color:     strPtr("#18181b"),
			Alignment: strPtr(AlignLeft),
		}
	case BlockText:
		return &TextProps{
			HTML:      strPtr("<p>Write something...</p>"),
			Color:     strPtr("#3f3f46"),
			Alignment: strPtr(AlignLeft),
		}
	case BlockImage:
		return &ImageProps{
			Alignment: strPtr(AlignCenter),
		}
	case BlockButton:
		return &ButtonProps{
			Text:            strPtr("Buy tickets"),
			Href:            strPtr(""),
			BackgroundColor: strPtr("#4f46e5"),
			TextColor:       strPtr("#ffffff"),
			BorderRadius:    intPtr(6),
			FullWidth:       boolPtr(false),
			Alignment:       strPtr(AlignCenter),
		}
	case BlockDivider:
		return &DividerProps{
			Color:     strPtr("#e4e4e7"),
			Thickness: intPtr(1),
			Style:     strPtr("solid"),
			Padding:   intPtr(16),
		}
	case BlockSpacer:
		return &SpacerProps{Height: intPtr(32)}
	case BlockColumns:
		return &ColumnsProps{
			Columns: []Column{{HTML: "<p>First column</p>"}, {HTML: "<p>Second column</p>"}},
			Ratio:   strPtr("50-50"),
			Gap:     intPtr(16),
		}
	case BlockSocial:
		return &SocialProps{
			Links:     []SocialLink{{Platform: "facebook"}, {Platform: "instagram"}},
			IconSize:  intPtr(24),
			Alignment: strPtr(AlignCenter),
		}
	case BlockFooter:
		return &FooterProps{
			CompanyName:     strPtr(""),
			Address:         strPtr(""),
			Color:           strPtr("#71717a"),
			BackgroundColor: strPtr("#f4f4f5"),
			Alignment:       strPtr(AlignCenter),
		}
	default:
		return RawProps{}
	}
}

// NewBlock creates a block of the given type with default props and a fresh
// unique id.
func NewBlock(t BlockType) Block {
	return Block{
		ID:    uuid.NewString(),
		Type:  t,
		Props: DefaultProps(t),
	}
}

// NewDocument returns the three-block starter document the editor opens for
// a brand new template: header, text, footer.
func NewDocument() Document {
	return Document{
		Blocks: []Block{
			NewBlock(BlockHeader),
			NewBlock(BlockText),
			NewBlock(BlockFooter),
		},
		Settings: DefaultSettings(),
	}
}

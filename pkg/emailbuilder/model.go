// Package emailbuilder implements the email template block model used by the
// visual editor, and the compiler that turns a block document into an HTML
// email that renders correctly across clients, including Outlook.
package emailbuilder

import (
	"encoding/json"
	"fmt"
)

// BlockType identifies one of the available block variants.
type BlockType string

const (
	BlockHeader  BlockType = "header"
	BlockHeading BlockType = "heading"
	BlockText    BlockType = "text"
	BlockImage   BlockType = "image"
	BlockButton  BlockType = "button"
	BlockDivider BlockType = "divider"
	BlockSpacer  BlockType = "spacer"
	BlockColumns BlockType = "columns"
	BlockSocial  BlockType = "social"
	BlockFooter  BlockType = "footer"
)

// Alignment values accepted by blocks that expose one.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// TemplateSettings is the global rendering context for a template. One
// instance exists per template; it is passed by value into every render call.
type TemplateSettings struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	ContentWidth    int    `json:"contentWidth,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
}

// Props is the marker interface implemented by every per-type property set.
type Props interface {
	isProps()
}

type HeaderProps struct {
	LogoURL         *string `json:"logoUrl,omitempty"`
	LogoAlt         *string `json:"logoAlt,omitempty"`
	LogoWidth       *int    `json:"logoWidth,omitempty"`
	Title           *string `json:"title,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	TextColor       *string `json:"textColor,omitempty"`
	Alignment       *string `json:"alignment,omitempty"`
}

type HeadingProps struct {
	Text      *string `json:"text,omitempty"`
	Level     *string `json:"level,omitempty"` // h1, h2
	Color     *string `json:"color,omitempty"`
	Alignment *string `json:"alignment,omitempty"`
}

type TextProps struct {
	// HTML is a trusted rich-text fragment produced by the editor. It is
	// inserted into the output verbatim.
	HTML      *string `json:"html,omitempty"`
	Color     *string `json:"color,omitempty"`
	Alignment *string `json:"alignment,omitempty"`
}

type ImageProps struct {
	Src       *string `json:"src,omitempty"`
	Alt       *string `json:"alt,omitempty"`
	Href      *string `json:"href,omitempty"`
	Width     *int    `json:"width,omitempty"`
	Alignment *string `json:"alignment,omitempty"`
}

type ButtonProps struct {
	Text            *string `json:"text,omitempty"`
	Href            *string `json:"href,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	TextColor       *string `json:"textColor,omitempty"`
	BorderRadius    *int    `json:"borderRadius,omitempty"` // 0-50
	FullWidth       *bool   `json:"fullWidth,omitempty"`
	Alignment       *string `json:"alignment,omitempty"`
}

type DividerProps struct {
	Color     *string `json:"color,omitempty"`
	Thickness *int    `json:"thickness,omitempty"` // 1-10
	Style     *string `json:"style,omitempty"`     // solid, dashed, dotted
	Padding   *int    `json:"padding,omitempty"`
}

type SpacerProps struct {
	Height *int `json:"height,omitempty"` // 8-120
}

// Column is one cell of a columns block. HTML is a trusted rich-text
// fragment, inserted verbatim.
type Column struct {
	HTML string `json:"html"`
}

type ColumnsProps struct {
	Columns []Column `json:"columns,omitempty"`
	Ratio   *string  `json:"ratio,omitempty"` // 50-50, 33-67, 67-33, 33-33-33
	Gap     *int     `json:"gap,omitempty"`
}

type SocialLink struct {
	Platform string `json:"platform"` // facebook, twitter, instagram, linkedin, youtube, website
	URL      string `json:"url"`
}

type SocialProps struct {
	Links     []SocialLink `json:"links,omitempty"`
	IconSize  *int         `json:"iconSize,omitempty"`
	Alignment *string      `json:"alignment,omitempty"`
}

type FooterProps struct {
	// HTML is trusted rich text; when set it replaces the composed
	// companyName/address line. The unsubscribe link is appended either way.
	HTML            *string `json:"html,omitempty"`
	CompanyName     *string `json:"companyName,omitempty"`
	Address         *string `json:"address,omitempty"`
	Color           *string `json:"color,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	Alignment       *string `json:"alignment,omitempty"`
}

// RawProps carries the properties of a block whose type this build does not
// recognize. The document survives a load/save round trip and the renderer
// skips the block.
type RawProps map[string]interface{}

func (*HeaderProps) isProps()  {}
func (*HeadingProps) isProps() {}
func (*TextProps) isProps()    {}
func (*ImageProps) isProps()   {}
func (*ButtonProps) isProps()  {}
func (*DividerProps) isProps() {}
func (*SpacerProps) isProps()  {}
func (*ColumnsProps) isProps() {}
func (*SocialProps) isProps()  {}
func (*FooterProps) isProps()  {}
func (RawProps) isProps()      {}

// Block is one visual unit of an email template. ID is assigned at creation
// and stable across reorders and edits; Type is immutable once created.
type Block struct {
	ID    string    `json:"id"`
	Type  BlockType `json:"type"`
	Props Props     `json:"props,omitempty"`
}

// Document is the full ordered block list for one template, plus its
// settings and optional preheader. Block order is vertical stacking order in
// the rendered email.
type Document struct {
	Blocks    []Block          `json:"blocks"`
	Settings  TemplateSettings `json:"settings"`
	Preheader string           `json:"preheader,omitempty"`
}

// newPropsFor returns an empty typed props value for a block type, or nil
// when the type is not recognized.
func newPropsFor(t BlockType) Props {
	switch t {
	case BlockHeader:
		return &HeaderProps{}
	case BlockHeading:
		return &HeadingProps{}
	case BlockText:
		return &TextProps{}
	case BlockImage:
		return &ImageProps{}
	case BlockButton:
		return &ButtonProps{}
	case BlockDivider:
		return &DividerProps{}
	case BlockSpacer:
		return &SpacerProps{}
	case BlockColumns:
		return &ColumnsProps{}
	case BlockSocial:
		return &SocialProps{}
	case BlockFooter:
		return &FooterProps{}
	default:
		return nil
	}
}

type blockJSON struct {
	ID    string          `json:"id"`
	Type  BlockType       `json:"type"`
	Props json.RawMessage `json:"props,omitempty"`
}

// UnmarshalJSON decodes the props payload into the typed struct matching the
// block type. Unrecognized types keep their props as a raw map so the
// document round-trips without loss.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal block: %w", err)
	}

	b.ID = raw.ID
	b.Type = raw.Type

	props := newPropsFor(raw.Type)
	if props == nil {
		if len(raw.Props) > 0 {
			var m RawProps
			if err := json.Unmarshal(raw.Props, &m); err != nil {
				return fmt.Errorf("failed to unmarshal props for unknown block type %q: %w", raw.Type, err)
			}
			b.Props = m
		}
		return nil
	}

	if len(raw.Props) > 0 {
		if err := json.Unmarshal(raw.Props, props); err != nil {
			return fmt.Errorf("failed to unmarshal %s props: %w", raw.Type, err)
		}
	}
	b.Props = props
	return nil
}

func (b Block) MarshalJSON() ([]byte, error) {
	var props json.RawMessage
	if b.Props != nil {
		data, err := json.Marshal(b.Props)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s props: %w", b.Type, err)
		}
		props = data
	}
	return json.Marshal(blockJSON{ID: b.ID, Type: b.Type, Props: props})
}

// IndexOf returns the position of the block with the given id, or -1.
func (d Document) IndexOf(id string) int {
	for i, b := range d.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// FooterIndex returns the position of the first footer block, or -1.
func (d Document) FooterIndex() int {
	for i, b := range d.Blocks {
		if b.Type == BlockFooter {
			return i
		}
	}
	return -1
}

// Validate reports structural problems in a document: duplicate block ids,
// more than one footer, or a footer that is not the last block. The renderer
// does not require a valid document; this is for the editor and for checking
// documents loaded from storage.
func (d Document) Validate() error {
	seen := make(map[string]struct{}, len(d.Blocks))
	footers := 0
	lastFooter := -1
	for i, b := range d.Blocks {
		if b.ID != "" {
			if _, dup := seen[b.ID]; dup {
				return fmt.Errorf("duplicate block id %q", b.ID)
			}
			seen[b.ID] = struct{}{}
		}
		if b.Type == BlockFooter {
			footers++
			lastFooter = i
		}
	}
	if footers > 1 {
		return fmt.Errorf("document has more than one footer block")
	}
	if footers == 1 && lastFooter != len(d.Blocks)-1 {
		return fmt.Errorf("footer block must be the last block")
	}
	return nil
}

// UnmarshalBlocks decodes a JSON array of blocks, as stored in the database.
func UnmarshalBlocks(data []byte) ([]Block, error) {
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block list: %w", err)
	}
	return blocks, nil
}

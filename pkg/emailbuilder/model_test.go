package emailbuilder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockJSONRoundTrip(t *testing.T) {
	doc := Document{
		Blocks: []Block{
			{ID: "1", Type: BlockHeader, Props: &HeaderProps{Title: strPtr("Spring Gala"), LogoWidth: intPtr(140)}},
			{ID: "2", Type: BlockColumns, Props: &ColumnsProps{
				Columns: []Column{{HTML: "<p>a</p>"}, {HTML: "<p>b</p>"}},
				Ratio:   strPtr("67-33"),
				Gap:     intPtr(24),
			}},
			{ID: "3", Type: BlockFooter, Props: &FooterProps{CompanyName: strPtr("Civic Opera")}},
		},
		Settings:  TemplateSettings{ContentWidth: 640},
		Preheader: "Doors at 7",
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.Blocks, 3)
	header := decoded.Blocks[0].Props.(*HeaderProps)
	assert.Equal(t, "Spring Gala", *header.Title)
	assert.Equal(t, 140, *header.LogoWidth)

	cols := decoded.Blocks[1].Props.(*ColumnsProps)
	assert.Equal(t, "67-33", *cols.Ratio)
	require.Len(t, cols.Columns, 2)

	assert.Equal(t, "Doors at 7", decoded.Preheader)
	assert.Equal(t, 640, decoded.Settings.ContentWidth)

	// A second round trip is byte-stable.
	again, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestBlockJSONUnknownType(t *testing.T) {
	raw := `{"id":"x","type":"countdown","props":{"until":"2026-06-01","label":"Opens in"}}`

	var block Block
	require.NoError(t, json.Unmarshal([]byte(raw), &block))

	assert.Equal(t, BlockType("countdown"), block.Type)
	props, ok := block.Props.(RawProps)
	require.True(t, ok, "unknown types keep raw props")
	assert.Equal(t, "Opens in", props["label"])

	// The unknown block survives a save round trip.
	data, err := json.Marshal(block)
	require.NoError(t, err)
	var again Block
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, block.Type, again.Type)
}

func TestBlockJSONMissingProps(t *testing.T) {
	var block Block
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"spacer"}`), &block))

	p, ok := block.Props.(*SpacerProps)
	require.True(t, ok)
	assert.Nil(t, p.Height)
}

func TestUnmarshalBlocks(t *testing.T) {
	raw := `[{"id":"a","type":"heading","props":{"text":"Hi"}},{"id":"b","type":"divider"}]`

	blocks, err := UnmarshalBlocks([]byte(raw))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockHeading, blocks[0].Type)

	_, err = UnmarshalBlocks([]byte(`not json`))
	require.Error(t, err)
}

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		blocks  []Block
		wantErr string
	}{
		{
			name:   "valid with footer last",
			blocks: []Block{{ID: "a", Type: BlockText}, {ID: "b", Type: BlockFooter}},
		},
		{
			name:   "valid without footer",
			blocks: []Block{{ID: "a", Type: BlockText}},
		},
		{
			name:    "duplicate ids",
			blocks:  []Block{{ID: "a", Type: BlockText}, {ID: "a", Type: BlockDivider}},
			wantErr: "duplicate block id",
		},
		{
			name:    "footer not last",
			blocks:  []Block{{ID: "a", Type: BlockFooter}, {ID: "b", Type: BlockText}},
			wantErr: "footer block must be the last block",
		},
		{
			name:    "two footers",
			blocks:  []Block{{ID: "a", Type: BlockFooter}, {ID: "b", Type: BlockFooter}},
			wantErr: "more than one footer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Document{Blocks: tt.blocks}.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPropsCoverEveryType(t *testing.T) {
	for _, bt := range []BlockType{
		BlockHeader, BlockHeading, BlockText, BlockImage, BlockButton,
		BlockDivider, BlockSpacer, BlockColumns, BlockSocial, BlockFooter,
	} {
		props := DefaultProps(bt)
		require.NotNil(t, props, "no defaults for %s", bt)
		_, isRaw := props.(RawProps)
		require.False(t, isRaw, "known type %s fell through to raw props", bt)
	}
}

func TestSettingsWithDefaults(t *testing.T) {
	s := TemplateSettings{}.withDefaults()
	assert.Equal(t, DefaultBackgroundColor, s.BackgroundColor)
	assert.Equal(t, DefaultContentWidth, s.ContentWidth)
	assert.Equal(t, DefaultFontFamily, s.FontFamily)

	custom := TemplateSettings{BackgroundColor: "#000000", ContentWidth: 700, FontFamily: "Georgia, serif"}.withDefaults()
	assert.Equal(t, "#000000", custom.BackgroundColor)
	assert.Equal(t, 700, custom.ContentWidth)
	assert.Equal(t, "Georgia, serif", custom.FontFamily)
}

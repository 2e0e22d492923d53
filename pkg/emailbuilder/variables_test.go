package emailbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertVariableIntoText(t *testing.T) {
	doc := Document{Blocks: []Block{
		{ID: "t", Type: BlockText, Props: &TextProps{HTML: strPtr("<p>Hi </p>")}},
	}}

	next, err := InsertVariable(doc, "t", "contact.first_name")
	require.NoError(t, err)

	p := next.Blocks[0].Props.(*TextProps)
	assert.Equal(t, "<p>Hi </p>{{contact.first_name}}", *p.HTML)

	// Original untouched.
	assert.Equal(t, "<p>Hi </p>", *doc.Blocks[0].Props.(*TextProps).HTML)
}

func TestInsertVariableIntoHeadingAndButton(t *testing.T) {
	doc := Document{Blocks: []Block{
		{ID: "h", Type: BlockHeading, Props: &HeadingProps{Text: strPtr("Welcome ")}},
		{ID: "b", Type: BlockButton, Props: &ButtonProps{Text: strPtr("Tickets for ")}},
	}}

	next, err := InsertVariable(doc, "h", "contact.first_name")
	require.NoError(t, err)
	assert.Equal(t, "Welcome {{contact.first_name}}", *next.Blocks[0].Props.(*HeadingProps).Text)

	next, err = InsertVariable(next, "b", "ticket.event_name")
	require.NoError(t, err)
	assert.Equal(t, "Tickets for {{ticket.event_name}}", *next.Blocks[1].Props.(*ButtonProps).Text)
}

func TestInsertVariableRejectsOtherTypes(t *testing.T) {
	doc := Document{Blocks: []Block{
		{ID: "i", Type: BlockImage, Props: &ImageProps{}},
		{ID: "s", Type: BlockSpacer, Props: &SpacerProps{}},
	}}

	_, err := InsertVariable(doc, "i", "contact.email")
	require.ErrorIs(t, err, ErrVariableNotText)

	_, err = InsertVariable(doc, "s", "contact.email")
	require.ErrorIs(t, err, ErrVariableNotText)
}

func TestInsertVariableUnknownBlock(t *testing.T) {
	_, err := InsertVariable(Document{}, "missing", "contact.email")
	require.Error(t, err)
}

func TestEditorInsertVariableRequiresSelection(t *testing.T) {
	e := NewEditor(NewDocument(), DefaultVariableCatalog())

	require.ErrorIs(t, e.InsertVariable("contact.email"), ErrNoBlockSelected)

	e.Select(e.Document().Blocks[1].ID) // the text block
	require.NoError(t, e.InsertVariable("contact.email"))
	p := e.Document().Blocks[1].Props.(*TextProps)
	assert.True(t, strings.HasSuffix(*p.HTML, "{{contact.email}}"))
}

func TestTokenSurvivesRendering(t *testing.T) {
	doc := Document{Blocks: []Block{
		{ID: "t", Type: BlockText, Props: &TextProps{HTML: strPtr("Hello {{contact.first_name}}!")}},
		{ID: "h", Type: BlockHeading, Props: &HeadingProps{Text: strPtr("Your {{ticket.type}} pass")}},
	}}

	out := RenderDocument(doc)

	// Tokens pass through compilation verbatim, never escaped or mangled,
	// in both rich-text and plain-text contexts.
	assert.Contains(t, out, "{{contact.first_name}}")
	assert.Contains(t, out, "{{ticket.type}}")
}

func TestDefaultVariableCatalogShape(t *testing.T) {
	catalog := DefaultVariableCatalog()

	categories := make(map[string]bool)
	for _, g := range catalog {
		categories[g.Category] = true
		require.NotEmpty(t, g.Variables, "category %s has no variables", g.Category)
		for _, v := range g.Variables {
			require.NotEmpty(t, v.Key)
			require.NotEmpty(t, v.Label)
		}
	}

	for _, want := range []string{"Contact", "Ticket", "Membership", "Donation", "Organization", "System"} {
		assert.True(t, categories[want], "missing category %s", want)
	}
}

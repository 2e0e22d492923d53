package emailbuilder

import (
	"errors"
	"fmt"
)

// Insertion failures reported to the caller as conditions, not panics.
var (
	ErrNoBlockSelected = errors.New("no block selected")
	ErrVariableNotText = errors.New("selected block has no text field for variables")
)

// Variable is one mergeable field. Key is the raw token identifier; the
// rendered token is {{key}}, resolved per recipient at send time.
type Variable struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// VariableGroup is one category of variables for the editor's picker.
type VariableGroup struct {
	Category  string     `json:"category"`
	Variables []Variable `json:"variables"`
}

// VariableCatalog is the full picker content. It is plain data injected into
// the editor so deployments and tests can swap it without hidden coupling.
type VariableCatalog []VariableGroup

// DefaultVariableCatalog returns the stock catalog for the back office:
// contact, ticket, membership, donation, organization and system fields.
func DefaultVariableCatalog() VariableCatalog {
	return VariableCatalog{
		{
			Category: "Contact",
			Variables: []Variable{
				{Key: "contact.first_name", Label: "First name"},
				{Key: "contact.last_name", Label: "Last name"},
				{Key: "contact.email", Label: "Email"},
				{Key: "contact.phone", Label: "Phone"},
			},
		},
		{
			Category: "Ticket",
			Variables: []Variable{
				{Key: "ticket.event_name", Label: "Event name"},
				{Key: "ticket.type", Label: "Ticket type"},
				{Key: "ticket.price", Label: "Price"},
				{Key: "ticket.seat", Label: "Seat"},
				{Key: "ticket.event_date", Label: "Event date"},
				{Key: "ticket.qr_url", Label: "QR code link"},
			},
		},
		{
			Category: "Membership",
			Variables: []Variable{
				{Key: "membership.tier", Label: "Tier"},
				{Key: "membership.started_at", Label: "Member since"},
				{Key: "membership.expires_at", Label: "Expires"},
			},
		},
		{
			Category: "Donation",
			Variables: []Variable{
				{Key: "donation.amount", Label: "Amount"},
				{Key: "donation.campaign", Label: "Campaign"},
				{Key: "donation.date", Label: "Date"},
			},
		},
		{
			Category: "Organization",
			Variables: []Variable{
				{Key: "organization.name", Label: "Name"},
				{Key: "organization.address", Label: "Address"},
				{Key: "organization.website", Label: "Website"},
			},
		},
		{
			Category: "System",
			Variables: []Variable{
				{Key: "unsubscribe_url", Label: "Unsubscribe link"},
				{Key: "preferences_url", Label: "Preferences link"},
				{Key: "current_year", Label: "Current year"},
			},
		},
	}
}

// Token wraps a variable key in the fixed {{key}} delimiter syntax. The key
// is inserted raw; the braces are plain text characters in HTML and survive
// compilation untouched.
func Token(key string) string {
	return "{{" + key + "}}"
}

// InsertVariable appends the {{key}} token to the primary text-bearing
// property of the given block: html for text blocks, text for heading and
// button blocks. Other block types have no single text field to target and
// the operation is rejected.
func InsertVariable(doc Document, blockID, key string) (Document, error) {
	i := doc.IndexOf(blockID)
	if i < 0 {
		return doc, fmt.Errorf("block %q not found", blockID)
	}

	block := doc.Blocks[i]
	if block.Props == nil {
		block.Props = newPropsFor(block.Type)
	}
	token := Token(key)

	switch p := block.Props.(type) {
	case *TextProps:
		next := *p
		next.HTML = strPtr(strOr(p.HTML, "") + token)
		block.Props = &next
	case *HeadingProps:
		next := *p
		next.Text = strPtr(strOr(p.Text, "") + token)
		block.Props = &next
	case *ButtonProps:
		next := *p
		next.Text = strPtr(strOr(p.Text, "") + token)
		block.Props = &next
	default:
		return doc, ErrVariableNotText
	}

	blocks := cloneBlocks(doc.Blocks)
	blocks[i] = block
	doc.Blocks = blocks
	return doc, nil
}

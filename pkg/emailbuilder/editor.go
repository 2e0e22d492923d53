package emailbuilder

import (
	"encoding/json"
	"fmt"
)

// The mutation functions below are pure: each returns a new document and
// leaves its input untouched, so an editing session can keep a history of
// snapshots for undo/redo.

func cloneBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}

// insertIndex resolves where a new block goes: immediately after the
// selected block when one is selected and it precedes the footer, else
// immediately before the footer, else at the end.
func insertIndex(doc Document, selectedID string) int {
	fi := doc.FooterIndex()
	if selectedID != "" {
		if si := doc.IndexOf(selectedID); si >= 0 && (fi < 0 || si < fi) {
			return si + 1
		}
	}
	if fi >= 0 {
		return fi
	}
	return len(doc.Blocks)
}

// AddBlock creates a block with default props and a fresh id, inserted
// relative to the selection per the footer-last placement rule.
func AddBlock(doc Document, t BlockType, selectedID string) (Document, Block) {
	return InsertAt(doc, insertIndex(doc, selectedID), t)
}

// InsertAt creates a block at an explicit position. Out-of-range indexes are
// clamped to the block list bounds.
func InsertAt(doc Document, index int, t BlockType) (Document, Block) {
	block := NewBlock(t)
	if index < 0 {
		index = 0
	}
	if index > len(doc.Blocks) {
		index = len(doc.Blocks)
	}
	blocks := make([]Block, 0, len(doc.Blocks)+1)
	blocks = append(blocks, doc.Blocks[:index]...)
	blocks = append(blocks, block)
	blocks = append(blocks, doc.Blocks[index:]...)
	doc.Blocks = blocks
	return doc, block
}

// RemoveBlock removes a block by id. Unknown ids are a no-op. The footer is
// removable here; the editor UI just never offers it.
func RemoveBlock(doc Document, id string) Document {
	i := doc.IndexOf(id)
	if i < 0 {
		return doc
	}
	blocks := make([]Block, 0, len(doc.Blocks)-1)
	blocks = append(blocks, doc.Blocks[:i]...)
	blocks = append(blocks, doc.Blocks[i+1:]...)
	doc.Blocks = blocks
	return doc
}

// MoveBlock relocates the block at oldIndex to newIndex, splice-style.
// Callers are responsible for never passing the footer's index.
func MoveBlock(doc Document, oldIndex, newIndex int) Document {
	n := len(doc.Blocks)
	if oldIndex < 0 || oldIndex >= n {
		return doc
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex >= n {
		newIndex = n - 1
	}
	if oldIndex == newIndex {
		return doc
	}
	blocks := cloneBlocks(doc.Blocks)
	moved := blocks[oldIndex]
	blocks = append(blocks[:oldIndex], blocks[oldIndex+1:]...)
	rest := make([]Block, 0, n)
	rest = append(rest, blocks[:newIndex]...)
	rest = append(rest, moved)
	rest = append(rest, blocks[newIndex:]...)
	doc.Blocks = rest
	return doc
}

// UpdateProps shallow-merges a partial prop set into the block's existing
// props: each provided key replaces the existing value wholesale, so nested
// arrays like columns and links must be passed in full. The merged result is
// decoded back into the block's typed props.
func UpdateProps(doc Document, id string, patch map[string]interface{}) (Document, error) {
	i := doc.IndexOf(id)
	if i < 0 {
		return doc, fmt.Errorf("block %q not found", id)
	}
	if len(patch) == 0 {
		return doc, nil
	}

	block := doc.Blocks[i]

	merged := make(map[string]interface{})
	if block.Props != nil {
		current, err := json.Marshal(block.Props)
		if err != nil {
			return doc, fmt.Errorf("failed to marshal %s props: %w", block.Type, err)
		}
		if err := json.Unmarshal(current, &merged); err != nil {
			return doc, fmt.Errorf("failed to decode %s props: %w", block.Type, err)
		}
	}
	for k, v := range patch {
		merged[k] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return doc, fmt.Errorf("failed to marshal merged props: %w", err)
	}

	props := newPropsFor(block.Type)
	if props == nil {
		var m RawProps
		if err := json.Unmarshal(data, &m); err != nil {
			return doc, fmt.Errorf("failed to decode merged props: %w", err)
		}
		block.Props = m
	} else {
		if err := json.Unmarshal(data, props); err != nil {
			return doc, fmt.Errorf("failed to decode merged %s props: %w", block.Type, err)
		}
		block.Props = props
	}

	blocks := cloneBlocks(doc.Blocks)
	blocks[i] = block
	doc.Blocks = blocks
	return doc, nil
}

const maxHistory = 100

// Editor owns one editing session over a document: current selection, the
// variable catalog, and an undo/redo history of immutable snapshots.
// Selection is UI state and is never persisted with the document. An Editor
// is owned by a single session and is not safe for concurrent use.
type Editor struct {
	doc      Document
	selected string
	catalog  VariableCatalog

	history []Document
	future  []Document
}

// NewEditor starts a session over an existing document.
func NewEditor(doc Document, catalog VariableCatalog) *Editor {
	return &Editor{doc: doc, catalog: catalog}
}

// Document returns the current document state.
func (e *Editor) Document() Document { return e.doc }

// Catalog returns the variable catalog injected at construction.
func (e *Editor) Catalog() VariableCatalog { return e.catalog }

// SelectedID returns the currently selected block id, or "".
func (e *Editor) SelectedID() string { return e.selected }

// Select sets the selection. Selecting an id that is not in the document
// clears it.
func (e *Editor) Select(id string) {
	if id != "" && e.doc.IndexOf(id) < 0 {
		id = ""
	}
	e.selected = id
}

func (e *Editor) push() {
	e.history = append(e.history, e.doc)
	if len(e.history) > maxHistory {
		e.history = e.history[1:]
	}
	e.future = nil
}

// AddBlock inserts a new default block relative to the selection and selects
// it. Adding a second footer is refused.
func (e *Editor) AddBlock(t BlockType) (Block, error) {
	if t == BlockFooter && e.doc.FooterIndex() >= 0 {
		return Block{}, fmt.Errorf("document already has a footer block")
	}
	e.push()
	doc, block := AddBlock(e.doc, t, e.selected)
	e.doc = doc
	e.selected = block.ID
	return block, nil
}

// InsertAt inserts a new default block at an explicit index and selects it.
func (e *Editor) InsertAt(index int, t BlockType) (Block, error) {
	if t == BlockFooter && e.doc.FooterIndex() >= 0 {
		return Block{}, fmt.Errorf("document already has a footer block")
	}
	if fi := e.doc.FooterIndex(); fi >= 0 && index > fi {
		index = fi
	}
	e.push()
	doc, block := InsertAt(e.doc, index, t)
	e.doc = doc
	e.selected = block.ID
	return block, nil
}

// RemoveBlock removes a block; removing the selected block clears the
// selection.
func (e *Editor) RemoveBlock(id string) {
	if e.doc.IndexOf(id) < 0 {
		return
	}
	e.push()
	e.doc = RemoveBlock(e.doc, id)
	if e.selected == id {
		e.selected = ""
	}
}

// MoveBlock relocates a block. Moving the footer, or moving another block
// past it, is refused so the footer stays terminal.
func (e *Editor) MoveBlock(oldIndex, newIndex int) error {
	fi := e.doc.FooterIndex()
	if fi >= 0 {
		if oldIndex == fi {
			return fmt.Errorf("footer block cannot be moved")
		}
		if newIndex >= fi {
			return fmt.Errorf("blocks cannot be moved after the footer")
		}
	}
	e.push()
	e.doc = MoveBlock(e.doc, oldIndex, newIndex)
	return nil
}

// UpdateProps merges a partial prop set into a block.
func (e *Editor) UpdateProps(id string, patch map[string]interface{}) error {
	e.push()
	doc, err := UpdateProps(e.doc, id, patch)
	if err != nil {
		// Nothing changed; drop the snapshot.
		e.history = e.history[:len(e.history)-1]
		return err
	}
	e.doc = doc
	return nil
}

// UpdateSettings replaces the template settings.
func (e *Editor) UpdateSettings(settings TemplateSettings) {
	e.push()
	e.doc.Settings = settings
}

// InsertVariable appends the {{key}} token to the selected block's primary
// text property. It reports an error when nothing is selected or the
// selected block has no single text field to target.
func (e *Editor) InsertVariable(key string) error {
	if e.selected == "" {
		return ErrNoBlockSelected
	}
	e.push()
	doc, err := InsertVariable(e.doc, e.selected, key)
	if err != nil {
		e.history = e.history[:len(e.history)-1]
		return err
	}
	e.doc = doc
	return nil
}

// Undo reverts the last mutation. It reports whether a step was undone.
func (e *Editor) Undo() bool {
	if len(e.history) == 0 {
		return false
	}
	e.future = append(e.future, e.doc)
	e.doc = e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	if e.selected != "" && e.doc.IndexOf(e.selected) < 0 {
		e.selected = ""
	}
	return true
}

// Redo reapplies the last undone mutation.
func (e *Editor) Redo() bool {
	if len(e.future) == 0 {
		return false
	}
	e.history = append(e.history, e.doc)
	e.doc = e.future[len(e.future)-1]
	e.future = e.future[:len(e.future)-1]
	return true
}

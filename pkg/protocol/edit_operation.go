package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type EditKind string

const (
	EditReplace EditKind = "replace"
	EditModify  EditKind = "modify"
	EditCreate  EditKind = "create"
	EditRename  EditKind = "rename"
	EditCompare EditKind = "compare"
)

// EditOperation is a validated [edit] payload.
type EditOperation struct {
	Kind       EditKind
	File       string
	NewName    string
	Files      []string
	NewContent string

	Backup      bool
	Safe        bool
	Preview     bool
	Diff        bool
	Interactive bool
}

var (
	ErrInvalidJSON      = errors.New("payload is not valid JSON. Assistant must return strictly escaped JSON inside [edit] tags")
	ErrMissingOperation = errors.New("block missing 'operation' field")
	ErrMissingFile      = errors.New("missing 'file' field")
	ErrRenameFields     = errors.New("rename requires 'file' and 'newname' fields")
	ErrCompareFiles     = errors.New("compare requires a 'files' array with at least two file paths")
)

// scalar decodes any JSON scalar as text: numbers and booleans keep their
// literal form, null is empty. Objects and arrays also decode as empty.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
	case data[0] == '{' || data[0] == '[':
		*s = ""
	default:
		*s = scalar(data)
	}
	return nil
}

type editPayload struct {
	Operation scalar          `json:"operation"`
	File      scalar          `json:"file"`
	NewName   scalar          `json:"newname"`
	Files     []scalar        `json:"files"`
	Content   json.RawMessage `json:"content"`
	New       *scalar         `json:"new"`
}

// newContent resolves the replacement text: content.new, then content as a
// string, then the top-level new. A present content field decides on its
// own and never falls through to new. Only content itself must be a string;
// the new fields accept any scalar.
func (p editPayload) newContent() string {
	if len(p.Content) > 0 {
		var nested struct {
			New *scalar `json:"new"`
		}
		if err := json.Unmarshal(p.Content, &nested); err == nil && nested.New != nil {
			return string(*nested.New)
		}
		var flat string
		if err := json.Unmarshal(p.Content, &flat); err == nil {
			return flat
		}
		return ""
	}
	if p.New != nil {
		return string(*p.New)
	}
	return ""
}

// ParseEdit validates an [edit] payload. The returned error is a diagnostic
// for the user; nothing should be executed when it is non-nil.
func ParseEdit(payload string) (EditOperation, error) {
	var p editPayload
	if payload == "" {
		return EditOperation{}, ErrInvalidJSON
	}
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return EditOperation{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if p.Operation == "" {
		return EditOperation{}, ErrMissingOperation
	}

	op := EditOperation{Kind: EditKind(p.Operation)}
	switch op.Kind {
	case EditCompare:
		if len(p.Files) < 2 {
			return EditOperation{}, ErrCompareFiles
		}
		for _, f := range p.Files {
			op.Files = append(op.Files, string(f))
		}

	case EditReplace, EditModify, EditCreate:
		if p.File == "" {
			return EditOperation{}, ErrMissingFile
		}
		op.File = string(p.File)
		op.NewContent = p.newContent()
		if op.NewContent == "" {
			return EditOperation{}, fmt.Errorf("no new content found in JSON payload for file %s", p.File)
		}
		// A file being created has nothing to back up.
		op.Backup = op.Kind != EditCreate
		op.Safe = true

	case EditRename:
		if p.File == "" || p.NewName == "" {
			return EditOperation{}, ErrRenameFields
		}
		op.File = string(p.File)
		op.NewName = string(p.NewName)

	default:
		return EditOperation{}, fmt.Errorf("unsupported operation: %s", p.Operation)
	}
	return op, nil
}

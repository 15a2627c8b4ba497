package message

// FileRef points at a source file mentioned in a log message.
type FileRef struct {
	Path string
	Line int // 0 when the message names a file without a line number
}

// Message is one logical unit of tool output, single- or multi-line.
// Interpreters build messages during segmentation; the filter and waiver
// engines consume them read-only.
type Message struct {
	StartLine int // 1-indexed, inclusive
	EndLine   int // 1-indexed, inclusive; always >= StartLine
	RawText   string
	Content   string
	Severity  string
	ID        string
	Category  string
	FileRef   *FileRef
	// Metadata carries interpreter-specific fields (hierarchy, phase, ...)
	// usable as extra grouping dimensions.
	Metadata map[string]string
}

// Field resolves a grouping field id to its value. Builtin fields are
// "severity", "id"/"message_id", "category" and "file"; anything else is
// looked up in Metadata.
func (m *Message) Field(id string) (string, bool) {
	switch id {
	case "severity":
		return m.Severity, m.Severity != ""
	case "id", "message_id":
		return m.ID, m.ID != ""
	case "category":
		return m.Category, m.Category != ""
	case "file":
		if m.FileRef == nil {
			return "", false
		}
		return m.FileRef.Path, true
	}
	v, ok := m.Metadata[id]
	return v, ok
}

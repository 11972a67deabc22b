package files

import (
	"mime"
	"strings"
)

// Media types the organizer routes on.
const (
	MediaPlainText    = "text/plain"
	MediaRichDocument = "application/vnd.google-apps.document"
	MediaFolder       = "application/vnd.google-apps.folder"
	MediaPDF          = "application/pdf"
	MediaWordDocument = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mediaImagePrefix  = "image/"
)

// File is a handle into the external store. The store owns it; the organizer
// only renames and reparents it.
type File struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MediaType string   `json:"mimeType"`
	Parents   []string `json:"parents,omitempty"`
	Size      int64    `json:"size,omitempty"`
}

// Folder is looked up by (ParentID, Name) and created on demand.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

// Kind is the extraction route for a media type.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPlainText
	KindRichDocument
	KindConvertible
)

func (k Kind) String() string {
	switch k {
	case KindPlainText:
		return "plain_text"
	case KindRichDocument:
		return "rich_document"
	case KindConvertible:
		return "convertible"
	default:
		return "unsupported"
	}
}

// Classify resolves the extraction route once, from the declared media type only.
func Classify(mediaType string) Kind {
	mt := normalize(mediaType)
	switch {
	case mt == MediaPlainText:
		return KindPlainText
	case mt == MediaRichDocument:
		return KindRichDocument
	case mt == MediaPDF, mt == MediaWordDocument, strings.HasPrefix(mt, mediaImagePrefix):
		return KindConvertible
	default:
		return KindUnsupported
	}
}

// ExtensionFor returns the suffix appended to an organized name. It is derived
// from the original media type, never from the proposal.
func ExtensionFor(mediaType, filename string) string {
	mt := normalize(mediaType)
	switch {
	case mt == MediaPDF:
		return ".pdf"
	case mt == MediaWordDocument:
		return ".docx"
	case strings.HasPrefix(mt, mediaImagePrefix):
		dot := strings.LastIndex(filename, ".")
		if dot <= 0 {
			return ""
		}
		return filename[dot:]
	default:
		return ""
	}
}

// normalize drops parameters such as "; charset=utf-8" and lowercases.
func normalize(mediaType string) string {
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	mt := strings.Split(mediaType, ";")[0]
	return strings.ToLower(strings.TrimSpace(mt))
}

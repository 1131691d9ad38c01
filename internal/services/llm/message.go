package llm

import "encoding/json"

// PartType identifies the kind of content carried by a message part.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image_url"
	PartVideo PartType = "video_url"
)

// Part is one element of a multimodal message. Image and video parts carry a
// URL, usually a base64 data URI.
type Part struct {
	Type PartType
	Text string
	URL  string
}

// TextPart wraps plain text.
func TextPart(text string) Part { return Part{Type: PartText, Text: text} }

// ImagePart references an image by URL or data URI.
func ImagePart(url string) Part { return Part{Type: PartImage, URL: url} }

// VideoPart references a video by URL or data URI.
func VideoPart(url string) Part { return Part{Type: PartVideo, URL: url} }

type mediaURL struct {
	URL string `json:"url"`
}

func (p Part) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case PartImage:
		return json.Marshal(struct {
			Type     PartType `json:"type"`
			ImageURL mediaURL `json:"image_url"`
		}{p.Type, mediaURL{p.URL}})
	case PartVideo:
		return json.Marshal(struct {
			Type     PartType `json:"type"`
			VideoURL mediaURL `json:"video_url"`
		}{p.Type, mediaURL{p.URL}})
	default:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			Text string   `json:"text"`
		}{PartText, p.Text})
	}
}

// Message is a role-tagged conversation turn. When Parts is empty the turn is
// sent as plain text content.
type Message struct {
	Role  string
	Text  string
	Parts []Part
}

// SystemMessage builds a plain-text system turn.
func SystemMessage(text string) Message { return Message{Role: "system", Text: text} }

// UserMessage builds a plain-text user turn.
func UserMessage(text string) Message { return Message{Role: "user", Text: text} }

// UserParts builds a multimodal user turn.
func UserParts(parts ...Part) Message { return Message{Role: "user", Parts: parts} }

func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Parts) == 0 {
		return json.Marshal(struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}{m.Role, m.Text})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content []Part `json:"content"`
	}{m.Role, m.Parts})
}

package sitekit

import (
	"bytes"

	bf "github.com/russross/blackfriday"
)

const mdExtensions = bf.EXTENSION_TABLES |
	bf.EXTENSION_FENCED_CODE |
	bf.EXTENSION_AUTOLINK |
	bf.EXTENSION_STRIKETHROUGH |
	bf.EXTENSION_SPACE_HEADERS |
	bf.EXTENSION_HEADER_IDS

type ImageAltTitleCopy struct {
	bf.Renderer
}

func (md ImageAltTitleCopy) Image(out *bytes.Buffer, link []byte, title []byte, alt []byte) {
	if title == nil {
		title = alt
	}
	if alt == nil {
		alt = title
	}
	md.Renderer.Image(out, link, title, alt)
}

func NewMdModifier(r bf.Renderer) bf.Renderer {
	return ImageAltTitleCopy{r}
}

// Markdown converts a post body to HTML.
func Markdown(b []byte) []byte {
	return bf.Markdown(b, NewMdModifier(bf.HtmlRenderer(0, "", "")), mdExtensions)
}

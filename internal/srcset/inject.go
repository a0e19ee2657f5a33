package srcset

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
)

// TagOptions configures a plain image tag.
type TagOptions struct {
	Text    imagetext.Spec      `json:"text" yaml:"text"`
	Meta    *imagetext.Metadata `json:"meta,omitempty" yaml:"meta,omitempty"`
	Classes string              `json:"classes,omitempty" yaml:"classes,omitempty"`
}

var (
	svgComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	xmlDecl     = regexp.MustCompile(`(?s)<\?xml.*?\?>`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Tag renders image without resizing. SVG files are returned inline so they
// can be styled from the page; anything else becomes an img element with
// alt, title and class attributes. A missing file yields "".
func (r *Resolver) Tag(ctx context.Context, image string, opts TagOptions) (string, error) {
	rel := r.imagePath(image)
	if rel == "" || !r.Files.Exists(rel) {
		r.logger().Error("Image tag skipped", "image", image, "error", ErrImageNotFound)
		return "", nil
	}

	mimeType, err := r.Files.MimeType(rel)
	if err != nil {
		return "", err
	}

	if strings.Contains(mimeType, "svg") {
		content, err := r.Files.Read(rel)
		if err != nil {
			return "", err
		}
		return InlineSVG(content), nil
	}

	var b strings.Builder
	b.WriteString(`<img src="`)
	b.WriteString(html.EscapeString(r.Theme.URL(rel)))
	b.WriteString(`"`)
	b.WriteString(imagetext.Attributes(r.metadata(ctx, rel, opts.Meta), opts.Text))
	if opts.Classes != "" {
		b.WriteString(` class="`)
		b.WriteString(html.EscapeString(opts.Classes))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	return b.String(), nil
}

// InlineSVG strips comments and the XML declaration from an SVG document and
// collapses it onto one line.
func InlineSVG(content string) string {
	content = svgComments.ReplaceAllString(content, "")
	content = xmlDecl.ReplaceAllString(content, "")
	content = strings.NewReplacer("\r", "", "\n", "").Replace(content)
	return whitespace.ReplaceAllString(content, " ")
}

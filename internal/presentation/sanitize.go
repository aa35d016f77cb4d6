package presentation

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in model text is dropped by goldmark (no WithUnsafe) and the
// output is sanitized again before it is trusted by the template.
var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

var textPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// renderMarkdown converts model-written Markdown to sanitized HTML.
func renderMarkdown(text string) template.HTML {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &out); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(textPolicy.Sanitize(out.String()))
}

var (
	localRef   = regexp.MustCompile(`^url\(#[A-Za-z0-9_\-:.]+\)$`)
	svgLength  = regexp.MustCompile(`^[-0-9.,%a-zA-Z\s()]*$`)
	svgPolicy  = newSVGPolicy()
	camelAttrs = []string{
		"viewBox", "preserveAspectRatio", "markerWidth", "markerHeight",
		"markerUnits", "refX", "refY", "gradientUnits", "gradientTransform",
		"patternUnits", "clipPathUnits", "textLength", "lengthAdjust",
	}
	camelElems = []string{"foreignObject", "linearGradient", "radialGradient", "clipPath", "textPath"}
)

// newSVGPolicy allows the drawing vocabulary diagram renderers emit. Scripts,
// event handlers and href attributes are never allowed. <style> is kept so
// diagrams keep their theme; the SVG is only ever shown through <img>, where
// CSS cannot reach the page.
func newSVGPolicy() *bluemonday.Policy {
	elems := []string{
		"svg", "g", "defs", "marker", "path", "rect", "circle", "ellipse", "line",
		"polyline", "polygon", "text", "tspan", "title", "desc", "style",
		"foreignobject", "div", "span", "p", "br", "b", "i", "strong", "em",
		"lineargradient", "radialgradient", "stop", "clippath", "symbol", "pattern",
	}
	p := bluemonday.NewPolicy()
	p.AllowUnsafe(true)
	p.AllowElements(elems...)
	p.AllowNoAttrs().OnElements(elems...)
	p.AllowElementsContent("style", "title")
	p.AllowAttrs("xmlns", "version", "role", "aria-roledescription", "aria-labelledby", "aria-describedby").OnElements("svg")
	p.AllowAttrs(
		"id", "class", "style", "transform", "opacity", "fill", "fill-opacity", "stroke",
		"stroke-width", "stroke-dasharray", "stroke-linecap", "stroke-linejoin", "stroke-opacity",
		"font-size", "font-family", "font-weight", "text-anchor", "dominant-baseline",
		"alignment-baseline", "xml:space", "offset", "stop-color", "stop-opacity", "orient",
		"data-id", "data-et", "data-look", "data-node",
	).Globally()
	p.AllowAttrs(
		"x", "y", "x1", "y1", "x2", "y2", "cx", "cy", "r", "rx", "ry", "dx", "dy",
		"width", "height", "d", "points", "viewbox", "preserveaspectratio",
		"markerwidth", "markerheight", "markerunits", "refx", "refy", "gradientunits",
		"gradienttransform", "patternunits", "clippathunits", "textlength", "lengthadjust",
	).Matching(svgLength).Globally()
	p.AllowAttrs("marker-start", "marker-mid", "marker-end", "clip-path", "mask", "filter").Matching(localRef).Globally()
	return p
}

// sanitizeSVG returns svg with everything outside the drawing allowlist
// removed. The HTML tokenizer lowercases names, so SVG's camelCase names
// are restored afterwards.
func sanitizeSVG(svg string) string {
	out := svgPolicy.Sanitize(svg)
	for _, a := range camelAttrs {
		out = strings.ReplaceAll(out, " "+strings.ToLower(a)+"=", " "+a+"=")
	}
	for _, e := range camelElems {
		lower := strings.ToLower(e)
		out = strings.ReplaceAll(out, "<"+lower, "<"+e)
		out = strings.ReplaceAll(out, "</"+lower+">", "</"+e+">")
	}
	out = strings.TrimSpace(out)
	if strings.HasPrefix(out, "<svg") && !strings.Contains(out[:strings.IndexByte(out, '>')+1], "xmlns=") {
		out = `<svg xmlns="http://www.w3.org/2000/svg"` + out[len("<svg"):]
	}
	return out
}

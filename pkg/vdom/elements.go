package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// El creates an element with an arbitrary tag.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, string.
func El(tag string, args ...any) *VNode {
	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			node.setAttr(v)
		case []Attr:
			for _, a := range v {
				node.setAttr(a)
			}
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}
	return node
}

// setAttr stores a; repeated class attributes are joined.
func (v *VNode) setAttr(a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Key == "class" {
		if prev, ok := v.Props["class"].(string); ok && prev != "" {
			if next, ok := a.Value.(string); ok && next != "" {
				v.Props["class"] = prev + " " + next
				return
			}
		}
	}
	v.Props[a.Key] = a.Value
}

// Document structure
func Html(args ...any) *VNode   { return El("html", args...) }
func Head(args ...any) *VNode   { return El("head", args...) }
func Body(args ...any) *VNode   { return El("body", args...) }
func Title(args ...any) *VNode  { return El("title", args...) }
func Meta(args ...any) *VNode   { return El("meta", args...) }
func Link(args ...any) *VNode   { return El("link", args...) }
func Script(args ...any) *VNode { return El("script", args...) }

// Sections
func Header(args ...any) *VNode  { return El("header", args...) }
func Footer(args ...any) *VNode  { return El("footer", args...) }
func Main(args ...any) *VNode    { return El("main", args...) }
func Nav(args ...any) *VNode     { return El("nav", args...) }
func Section(args ...any) *VNode { return El("section", args...) }
func Article(args ...any) *VNode { return El("article", args...) }
func H1(args ...any) *VNode      { return El("h1", args...) }
func H2(args ...any) *VNode      { return El("h2", args...) }
func H3(args ...any) *VNode      { return El("h3", args...) }

// Grouping and text
func Div(args ...any) *VNode    { return El("div", args...) }
func P(args ...any) *VNode      { return El("p", args...) }
func Span(args ...any) *VNode   { return El("span", args...) }
func Strong(args ...any) *VNode { return El("strong", args...) }
func Ul(args ...any) *VNode     { return El("ul", args...) }
func Li(args ...any) *VNode     { return El("li", args...) }
func A(args ...any) *VNode      { return El("a", args...) }
func Img(args ...any) *VNode    { return El("img", args...) }
func Br() *VNode                { return El("br") }

// Forms
func Form(args ...any) *VNode   { return El("form", args...) }
func Label(args ...any) *VNode  { return El("label", args...) }
func Input(args ...any) *VNode  { return El("input", args...) }
func Button(args ...any) *VNode { return El("button", args...) }
func Select(args ...any) *VNode { return El("select", args...) }
func Option(args ...any) *VNode { return El("option", args...) }

package live

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/events"
)

// Frame types.
const (
	FrameEvent    = "event"
	FrameNavigate = "navigate"
	FrameBack     = "back"
	FrameForward  = "forward"
	FrameSession  = "session"
	FrameRender   = "render"
	FrameError    = "error"
)

// Inbound is a decoded client frame.
type Inbound struct {
	Type   string
	Kind   events.Kind
	Target string
	Key    string
	Value  string
	URL    string
}

// DecodeInbound parses a client frame.
func DecodeInbound(msg []byte) (Inbound, error) {
	if !gjson.ValidBytes(msg) {
		return Inbound{}, errors.New("E007").WithDetail("frame is not valid JSON")
	}
	doc := gjson.ParseBytes(msg)
	in := Inbound{
		Type:   doc.Get("type").String(),
		Target: doc.Get("target").String(),
		Key:    doc.Get("key").String(),
		Value:  doc.Get("value").String(),
		URL:    doc.Get("url").String(),
	}

	switch in.Type {
	case FrameEvent:
		kind, ok := events.ParseKind(doc.Get("kind").String())
		if !ok {
			return Inbound{}, errors.New("E007").WithMessagef("unknown event kind %q", doc.Get("kind").String())
		}
		in.Kind = kind
		if in.Target == "" && kind != events.KeyDown {
			return Inbound{}, errors.New("E007").WithDetail("event frame without target")
		}
	case FrameNavigate:
		if in.URL == "" {
			return Inbound{}, errors.New("E007").WithDetail("navigate frame without url")
		}
	case FrameBack, FrameForward:
	default:
		return Inbound{}, errors.New("E007").WithMessagef("unknown frame type %q", in.Type)
	}
	return in, nil
}

func encode(typ string, fields ...string) []byte {
	out := []byte(`{}`)
	out, _ = sjson.SetBytes(out, "type", typ)
	for i := 0; i+1 < len(fields); i += 2 {
		out, _ = sjson.SetBytes(out, fields[i], fields[i+1])
	}
	return out
}

func sessionFrame(id string) []byte {
	return encode(FrameSession, "id", id)
}

func renderFrame(path, markup string) []byte {
	return encode(FrameRender, "path", path, "html", markup)
}

func errorFrame(msg string) []byte {
	return encode(FrameError, "message", msg)
}

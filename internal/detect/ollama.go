package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"

	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/geom"
)

const (
	DefaultOllamaURL     = "http://localhost:11434"
	defaultOllamaTimeout = 300 * time.Second
	// ollamaMaxSide bounds the longest side of the image sent to the model.
	ollamaMaxSide = 1280
)

// Ollama asks a vision model served by ollama for boxes of the known classes.
type Ollama struct {
	client *api.Client
	Model  string
}

// NewOllama returns a backend talking to the server at rawURL.
func NewOllama(rawURL, model string) (*Ollama, error) {
	if rawURL == "" {
		rawURL = DefaultOllamaURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q", rawURL)
	}
	base := &url.URL{Scheme: u.Scheme, Host: u.Host}
	return &Ollama{client: api.NewClient(base, http.DefaultClient), Model: model}, nil
}

type ollamaBox struct {
	Class      string  `json:"class"`
	ClassID    *int    `json:"class_id"`
	Confidence float64 `json:"confidence"`
	Box        struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		W float64 `json:"w"`
		H float64 `json:"h"`
	} `json:"box"`
}

type ollamaReply struct {
	Detections []ollamaBox `json:"detections"`
}

// Prompt builds the instruction sent with the image.
func Prompt(classes []string) string {
	var b strings.Builder
	b.WriteString("Find every object of these classes in the image: ")
	b.WriteString(strings.Join(classes, ", "))
	b.WriteString(".\nAnswer with JSON only, in this shape:\n")
	b.WriteString(`{"detections":[{"class":"name","confidence":0.9,"box":{"x":0.1,"y":0.2,"w":0.3,"h":0.4}}]}`)
	b.WriteString("\nx and y are the top-left corner, all box values are fractions of the image width and height.")
	return b.String()
}

// Detect sends the image at req.Image to the model and parses its answer.
func (o *Ollama) Detect(ctx context.Context, req Request) (Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultOllamaTimeout)
		defer cancel()
	}
	img, err := dataset.OpenImage(req.Image)
	if err != nil {
		return Result{}, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, ollamaMaxSide, ollamaMaxSide, imaging.Lanczos), imaging.JPEG); err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}

	stream := false
	chat := &api.ChatRequest{
		Model: o.Model,
		Messages: []api.Message{{
			Role:    "user",
			Content: Prompt(req.Classes),
			Images:  []api.ImageData{api.ImageData(buf.Bytes())},
		}},
		Stream: &stream,
	}
	var content string
	err = o.client.Chat(ctx, chat, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{Diagnostics: err.Error()}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Result{Diagnostics: err.Error()}, fmt.Errorf("ollama chat: %w", err)
	}
	dets, err := ParseOllamaReply(content, req.Classes)
	if err != nil {
		return Result{Diagnostics: content}, nil
	}
	return Result{OK: true, Diagnostics: content, Detections: dets}, nil
}

// ParseOllamaReply extracts detections from a model answer. Classes are
// matched by id or case-insensitive name; unknown classes are dropped.
func ParseOllamaReply(raw string, classes []string) ([]Detection, error) {
	var reply ollamaReply
	if err := json.Unmarshal([]byte(sanitizeModelJSON(raw)), &reply); err != nil {
		return nil, fmt.Errorf("parse model reply: %w", err)
	}
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[strings.ToLower(strings.TrimSpace(c))] = i
	}
	var out []Detection
	for _, d := range reply.Detections {
		id := -1
		if d.ClassID != nil && *d.ClassID >= 0 && *d.ClassID < len(classes) {
			id = *d.ClassID
		} else if i, ok := index[strings.ToLower(strings.TrimSpace(d.Class))]; ok {
			id = i
		}
		if id < 0 {
			continue
		}
		conf := d.Confidence
		if conf <= 0 || conf > 1 {
			conf = 1
		}
		out = append(out, Detection{
			ClassID:    id,
			Confidence: conf,
			Rect:       geom.R(d.Box.X, d.Box.Y, d.Box.W, d.Box.H).Canon().Bound(),
		})
	}
	return out, nil
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInlineComment = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments and trailing commas and
// keeps the outermost object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")
	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

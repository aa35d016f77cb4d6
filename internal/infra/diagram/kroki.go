package diagram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://kroki.io"
	DefaultMaxBytes = 2 << 20
	defaultTimeout  = 15 * time.Second
)

// ErrNotMermaid is returned by the pre-check when the source does not start
// with a known diagram keyword.
var ErrNotMermaid = errors.New("source is not a mermaid diagram")

// Kroki renders Mermaid source to SVG through a Kroki server.
type Kroki struct {
	Endpoint string
	MaxBytes int64
	HTTP     *http.Client
}

func NewKroki(endpoint string, timeout time.Duration, maxBytes int64) *Kroki {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Kroki{
		Endpoint: strings.TrimRight(endpoint, "/"),
		MaxBytes: maxBytes,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Render returns the SVG document for source. renderID only tags errors.
func (k *Kroki) Render(ctx context.Context, renderID, source string) (string, error) {
	if err := Precheck(source); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.Endpoint+"/mermaid/svg", strings.NewReader(source))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := k.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("kroki %s: %w", renderID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, k.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("kroki %s: read body: %w", renderID, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", fmt.Errorf("kroki %s: status %d: %s", renderID, resp.StatusCode, msg)
	}
	if int64(len(body)) > k.MaxBytes {
		return "", fmt.Errorf("kroki %s: svg exceeds %d bytes", renderID, k.MaxBytes)
	}
	svg := string(body)
	if !strings.Contains(svg, "<svg") {
		return "", fmt.Errorf("kroki %s: response is not svg", renderID)
	}
	return svg, nil
}

var keywords = []string{
	"erDiagram", "graph", "flowchart", "classDiagram", "sequenceDiagram",
	"stateDiagram", "stateDiagram-v2", "mindmap", "journey", "gantt",
	"pie", "gitGraph", "timeline", "block-beta", "architecture-beta",
}

// Precheck rejects text whose first meaningful line is not a Mermaid
// diagram declaration. Front matter, directives and comments are skipped.
func Precheck(source string) error {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	inFront := false
	for i, line := range lines {
		l := strings.TrimSpace(line)
		switch {
		case l == "":
			continue
		case l == "---":
			if i == 0 || inFront {
				inFront = !inFront
				continue
			}
		case inFront, strings.HasPrefix(l, "%%"):
			continue
		}
		first := strings.Fields(l)[0]
		for _, kw := range keywords {
			if first == kw {
				return nil
			}
		}
		return ErrNotMermaid
	}
	return ErrNotMermaid
}

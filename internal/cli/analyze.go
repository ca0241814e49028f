package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/apps/nutrition"
)

type AnalyzeCmd struct {
	Image string `required:"" help:"Path to the food photo." type:"existingfile"`
	Mime  string `help:"Image MIME type. Detected from the file when empty."`
}

func (c *AnalyzeCmd) Run(ctx *Context, out io.Writer) error {
	data, err := os.ReadFile(c.Image)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	mime := c.Mime
	if mime == "" {
		mime = detectMime(c.Image, data)
	}

	provider, err := nutrition.NewProvider(ctx.Config)
	if err != nil {
		return err
	}

	analysis, err := nutrition.NewAnalyzer(provider).Analyze(context.Background(), nutrition.Image{Data: data, MimeType: mime})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}

// detectMime prefers the extension for HEIC/HEIF, which content sniffing
// does not recognise.
func detectMime(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return http.DetectContentType(data)
}

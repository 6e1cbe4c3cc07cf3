package charts

import (
	"os"
	"path/filepath"

	logging "orderviz/internal/infra/log"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// fontPaths are tried in order after the configured font. Only
// TrueType files parse; collections (.ttc) are skipped.
var fontPaths = []string{
	"etc/fonts/Inter-Regular.ttf",
	"etc/fonts/InterVariable.ttf",
	"./etc/fonts/Inter-Regular.ttf",
	"~/Library/Fonts/Inter-Regular.ttf",
	"/Library/Fonts/Inter-Regular.ttf",
	"/usr/share/fonts/truetype/inter/Inter-Regular.ttf",
	"/usr/local/share/fonts/Inter-Regular.ttf",
	"C:/Windows/Fonts/segoeui.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
}

const embeddedFont = "embedded:goregular"

type typeface struct {
	font *truetype.Font
	path string
}

func (t typeface) face(size float64) font.Face {
	return truetype.NewFace(t.font, &truetype.Options{Size: size, Hinting: font.HintingFull})
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}

// loadTypeface returns the first font that parses, falling back to the
// Go font compiled into the binary so rendering never depends on the host.
func loadTypeface(configured string) typeface {
	candidates := fontPaths
	if configured != "" {
		candidates = append([]string{configured}, fontPaths...)
	}

	for _, p := range candidates {
		path := expandPath(p)
		data, err := os.ReadFile(path)
		if err != nil {
			if p == configured {
				logging.LogWarn("Configured font not readable, searching defaults", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			logging.LogWarn("Font file exists but failed to load", zap.String("path", path), zap.Error(err))
			continue
		}
		logging.LogDebug("Loaded chart font", zap.String("path", path), zap.Int("size", len(data)))
		return typeface{font: f, path: path}
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		// goregular.TTF is a known-good font.
		panic(err)
	}
	logging.LogDebug("Using embedded chart font", zap.Int("paths_checked", len(candidates)))
	return typeface{font: f, path: embeddedFont}
}

// Package wordcloud renders word frequencies as a raster image where the
// glyph size of a word scales with how often it occurs.
package wordcloud

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sprucehealth/transcriptreport/libs/wordfreq"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrNoWords is returned when there is nothing to draw.
	ErrNoWords = errors.New("wordcloud: no words to draw")
	// ErrRender is returned when the image cannot be produced.
	ErrRender = errors.New("wordcloud: render failed")
)

// relativeScaling controls how much a word's size follows its frequency
// relative to the previous, more frequent word.
const relativeScaling = 0.5

// Options configure the rendered image.
type Options struct {
	Width       int
	Height      int
	MaxFontSize float64
	MinFontSize float64
	MaxWords    int
	// Margin is the padding in pixels kept around every word.
	Margin     int
	Background color.Color
	Palette    []color.Color
	Seed       int64
}

// DefaultOptions returns a 400x200 image with the font size capped at 50.
func DefaultOptions() *Options {
	return &Options{
		Width:       400,
		Height:      200,
		MaxFontSize: 50,
		MinFontSize: 4,
		MaxWords:    200,
		Margin:      2,
		Background:  color.Black,
		Palette: []color.Color{
			color.RGBA{0x44, 0x01, 0x54, 0xff},
			color.RGBA{0x3b, 0x52, 0x8b, 0xff},
			color.RGBA{0x21, 0x91, 0x8c, 0xff},
			color.RGBA{0x5e, 0xc9, 0x62, 0xff},
			color.RGBA{0xfd, 0xe7, 0x25, 0xff},
		},
		Seed: 1,
	}
}

// Placement is where a word is drawn.
type Placement struct {
	Word     string
	FontSize float64
	// Rect is the ink bounds of the word on the canvas.
	Rect  image.Rectangle
	Color color.Color

	dot fixed.Point26_6
}

var (
	fontOnce sync.Once
	goFont   *opentype.Font
	fontErr  error
)

func loadFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

type faceCache struct {
	f     *opentype.Font
	faces map[int]font.Face
}

func (c *faceCache) face(size float64) (font.Face, error) {
	// Sizes are bucketed to whole points.
	key := int(size)
	if fc, ok := c.faces[key]; ok {
		return fc, nil
	}
	fc, err := opentype.NewFace(c.f, &opentype.FaceOptions{
		Size:    float64(key),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	c.faces[key] = fc
	return fc, nil
}

func (c *faceCache) close() {
	for _, fc := range c.faces {
		fc.Close()
	}
}

// Layout decides the size, color and position of each word without drawing.
// Entries are ranked by count first; words that don't fit at the minimum
// font size are left out.
func Layout(entries []wordfreq.Entry, opts *Options) ([]*Placement, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	ranked := rank(entries)
	if opts.MaxWords > 0 && len(ranked) > opts.MaxWords {
		ranked = ranked[:opts.MaxWords]
	}
	if len(ranked) == 0 {
		return nil, ErrNoWords
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.MaxFontSize < 1 {
		return nil, errors.Wrapf(ErrRender, "bad dimensions %dx%d max font %.1f", opts.Width, opts.Height, opts.MaxFontSize)
	}
	minSize := math.Max(opts.MinFontSize, 1)

	f, err := loadFont()
	if err != nil {
		return nil, errors.Wrap(ErrRender, err.Error())
	}
	faces := &faceCache{f: f, faces: make(map[int]font.Face)}
	defer faces.close()

	rnd := rand.New(rand.NewSource(opts.Seed))
	canvas := image.Rect(0, 0, opts.Width, opts.Height)
	var placed []*Placement
	size := opts.MaxFontSize
	lastCount := ranked[0].Count
	for _, e := range ranked {
		size = size * (relativeScaling*float64(e.Count)/float64(lastCount) + (1 - relativeScaling))
		size = math.Max(math.Min(size, opts.MaxFontSize), minSize)
		lastCount = e.Count
		for s := size; s >= minSize; s-- {
			fc, err := faces.face(s)
			if err != nil {
				return nil, errors.Wrap(ErrRender, err.Error())
			}
			p := place(e.Word, fc, canvas, placed, opts.Margin, rnd)
			if p != nil {
				p.FontSize = math.Floor(s)
				if len(opts.Palette) != 0 {
					p.Color = opts.Palette[rnd.Intn(len(opts.Palette))]
				} else {
					p.Color = color.White
				}
				placed = append(placed, p)
				size = s
				break
			}
		}
	}
	if len(placed) == 0 {
		return nil, ErrNoWords
	}
	return placed, nil
}

// place walks an elliptical spiral from a random point near the middle of
// the canvas and returns the first spot where the word overlaps nothing.
func place(word string, fc font.Face, canvas image.Rectangle, placed []*Placement, margin int, rnd *rand.Rand) *Placement {
	bounds, _ := font.BoundString(fc, word)
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if w <= 0 || h <= 0 || w+2*margin > canvas.Dx() || h+2*margin > canvas.Dy() {
		return nil
	}
	cx := canvas.Dx()/2 + rnd.Intn(canvas.Dx()/4+1) - canvas.Dx()/8
	cy := canvas.Dy()/2 + rnd.Intn(canvas.Dy()/4+1) - canvas.Dy()/8
	aspect := float64(canvas.Dx()) / float64(canvas.Dy())
	maxT := math.Hypot(float64(canvas.Dx()), float64(canvas.Dy()))
	for t := 0.0; t < maxT; t += 0.2 {
		x := cx + int(aspect*t*math.Cos(t)) - w/2
		y := cy + int(t*math.Sin(t)) - h/2
		r := image.Rect(x, y, x+w, y+h)
		padded := r.Inset(-margin)
		if !padded.In(canvas) {
			continue
		}
		if overlaps(padded, placed) {
			continue
		}
		return &Placement{
			Word: word,
			Rect: r,
			dot:  fixed.Point26_6{X: fixed.I(x) - bounds.Min.X, Y: fixed.I(y) - bounds.Min.Y},
		}
	}
	return nil
}

func overlaps(r image.Rectangle, placed []*Placement) bool {
	for _, p := range placed {
		if r.Overlaps(p.Rect) {
			return true
		}
	}
	return false
}

// rank orders entries by descending count keeping the given order on ties
// and drops empty words and non-positive counts.
func rank(entries []wordfreq.Entry) []wordfreq.Entry {
	ranked := make([]wordfreq.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Word != "" && e.Count > 0 {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// Render lays out and draws the words.
func Render(entries []wordfreq.Entry, opts *Options) (image.Image, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	placements, err := Layout(entries, opts)
	if err != nil {
		return nil, err
	}
	f, err := loadFont()
	if err != nil {
		return nil, errors.Wrap(ErrRender, err.Error())
	}
	faces := &faceCache{f: f, faces: make(map[int]font.Face)}
	defer faces.close()

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	bg := opts.Background
	if bg == nil {
		bg = color.Black
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for _, p := range placements {
		fc, err := faces.face(p.FontSize)
		if err != nil {
			return nil, errors.Wrap(ErrRender, err.Error())
		}
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(p.Color),
			Face: fc,
			Dot:  p.dot,
		}
		d.DrawString(p.Word)
	}
	return img, nil
}

// Encode writes the image as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(ErrRender, err.Error())
	}
	return nil
}

// WriteFile writes the image as a PNG file.
func WriteFile(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrRender, "create %s: %s", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(ErrRender, "close %s: %s", path, cerr)
		}
	}()
	return Encode(f, img)
}

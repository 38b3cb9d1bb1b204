package subpath

// Palette assigns display colours to subpaths by position.
type Palette []string

// DefaultPalette holds ten colours that stay distinguishable on white.
var DefaultPalette = Palette{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#96CEB4",
	"#FECA57",
	"#FF9FF3",
	"#54A0FF",
	"#5F27CD",
	"#00D2D3",
	"#FF9F43",
}

// Color returns the colour for the subpath at zero-based index i.
func (p Palette) Color(i int) string {
	if len(p) == 0 {
		return DefaultPalette.Color(i)
	}
	return p[i%len(p)]
}

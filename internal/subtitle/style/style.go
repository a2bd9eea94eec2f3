// Package style models subtitle presentation: FontStyle/Profile records
// and the named presets, plus hex<->ASS color conversion (color.go) and
// the [V4+ Styles] header generator used by the ASS encoder.
package style

// FontStyle describes one text style (primary or secondary) within a
// Profile.
type FontStyle struct {
	FontName     string  `json:"font_name"`
	PointSize    int     `json:"point_size"`
	PrimaryColor string  `json:"primary_color"` // hex #RRGGBB or #AARRGGBB
	OutlineColor string  `json:"outline_color"` // hex
	OutlineWidth float64 `json:"outline_width"`
	ShadowWidth  float64 `json:"shadow_width"`
	Bold         bool    `json:"bold"`
	Italic       bool    `json:"italic"`
}

// Profile is a named style preset.
type Profile struct {
	Name        string    `json:"name"` // default|netflix|fansub|minimal
	Primary     FontStyle `json:"primary"`
	Secondary   FontStyle `json:"secondary"`
	Alignment   int       `json:"alignment"` // numpad-style ASS alignment, default 2 (bottom-center)
	MarginL     int       `json:"margin_l"`
	MarginR     int       `json:"margin_r"`
	MarginV     int       `json:"margin_v"`
	LineSpacing float64   `json:"line_spacing"`
	PlayResX    int       `json:"play_res_x"`
	PlayResY    int       `json:"play_res_y"`
}

// Presets returns the built-in named style profiles.
func Presets() map[string]Profile {
	return map[string]Profile{
		"default": {
			Name:        "default",
			Primary:     FontStyle{FontName: "Arial", PointSize: 48, PrimaryColor: "#FFFFFF", OutlineColor: "#000000", OutlineWidth: 2, ShadowWidth: 0, Bold: false},
			Secondary:   FontStyle{FontName: "Arial", PointSize: 36, PrimaryColor: "#CCCCCC", OutlineColor: "#000000", OutlineWidth: 1, ShadowWidth: 0},
			Alignment:   2,
			MarginL:     10, MarginR: 10, MarginV: 10,
			LineSpacing: 0,
			PlayResX:    1920, PlayResY: 1080,
		},
		"netflix": {
			Name:        "netflix",
			Primary:     FontStyle{FontName: "Netflix Sans", PointSize: 44, PrimaryColor: "#FFFFFF", OutlineColor: "#000000", OutlineWidth: 1.5, ShadowWidth: 0, Bold: false},
			Secondary:   FontStyle{FontName: "Netflix Sans", PointSize: 34, PrimaryColor: "#D0D0D0", OutlineColor: "#000000", OutlineWidth: 1},
			Alignment:   2,
			MarginL:     20, MarginR: 20, MarginV: 34,
			LineSpacing: 0,
			PlayResX:    1920, PlayResY: 1080,
		},
		"fansub": {
			Name:        "fansub",
			Primary:     FontStyle{FontName: "Comic Sans MS", PointSize: 52, PrimaryColor: "#FFFF00", OutlineColor: "#000080", OutlineWidth: 3, ShadowWidth: 1, Bold: true, Italic: true},
			Secondary:   FontStyle{FontName: "Comic Sans MS", PointSize: 40, PrimaryColor: "#00FFFF", OutlineColor: "#000080", OutlineWidth: 2, ShadowWidth: 1},
			Alignment:   2,
			MarginL:     10, MarginR: 10, MarginV: 20,
			LineSpacing: 0,
			PlayResX:    1280, PlayResY: 720,
		},
		"minimal": {
			Name:        "minimal",
			Primary:     FontStyle{FontName: "Helvetica", PointSize: 40, PrimaryColor: "#FFFFFF", OutlineColor: "#00000000", OutlineWidth: 0, ShadowWidth: 0},
			Secondary:   FontStyle{FontName: "Helvetica", PointSize: 32, PrimaryColor: "#AAAAAA", OutlineColor: "#00000000", OutlineWidth: 0},
			Alignment:   2,
			MarginL:     5, MarginR: 5, MarginV: 5,
			LineSpacing: 0,
			PlayResX:    1920, PlayResY: 1080,
		},
	}
}

// Default returns the "default" preset.
func Default() Profile { return Presets()["default"] }

// Lookup returns a named preset, falling back to Default if unknown.
func Lookup(name string) Profile {
	if p, ok := Presets()[name]; ok {
		return p
	}
	return Default()
}

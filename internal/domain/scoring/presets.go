package scoring

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func fixed(lo int, hi *int, points float64) Rule {
	return Rule{Min: lo, Max: hi, Points: floatp(points)}
}

func scaled(lo int, hi *int, multiplier float64) Rule {
	return Rule{Min: lo, Max: hi, Multiplier: floatp(multiplier)}
}

// DefaultSchemes returns fresh copies of the built-in schemes.
func DefaultSchemes() []Scheme {
	return []Scheme{
		{
			Slug:  "balanced",
			Label: "Balanced (default)",
			Mode:  ModeFixed,
			Rules: []Rule{
				fixed(1, intp(1), 25),
				fixed(2, intp(2), 18),
				fixed(3, intp(4), 12),
				fixed(5, intp(8), 8),
				fixed(9, intp(16), 5),
				fixed(17, nil, 2),
			},
		},
		{
			Slug:  "performance",
			Label: "Performance-weighted",
			Mode:  ModeFixed,
			Rules: []Rule{
				fixed(1, intp(1), 50),
				fixed(2, intp(2), 30),
				fixed(3, intp(3), 20),
				fixed(4, intp(4), 15),
				fixed(5, intp(8), 10),
				fixed(9, intp(16), 5),
				fixed(17, nil, 1),
			},
		},
		{
			Slug:       "participation",
			Label:      "Participation-friendly",
			Mode:       ModeMultiplier,
			BasePoints: 1,
			Rules: []Rule{
				scaled(1, intp(1), 3.0),
				scaled(2, intp(2), 2.5),
				scaled(3, intp(4), 2.0),
				scaled(5, intp(8), 1.5),
				scaled(9, intp(16), 1.2),
				scaled(17, nil, 1.0),
			},
		},
	}
}

// DefaultSchemeSlug is used when a series names no scheme.
const DefaultSchemeSlug = "balanced"

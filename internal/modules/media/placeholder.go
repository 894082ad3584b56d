package media

import "fmt"

var placeholderSizes = map[string]int{
	VariantThumbnail: 240,
	VariantMedium:    640,
	VariantHighRes:   1200,
}

// PlaceholderSize returns the square edge in pixels for a variant, medium when unknown
func PlaceholderSize(variant string) int {
	if size, ok := placeholderSizes[variant]; ok {
		return size
	}
	return placeholderSizes[VariantMedium]
}

// PlaceholderSVG renders the neutral product placeholder
func PlaceholderSVG(variant string) string {
	size := PlaceholderSize(variant)
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[1]d" viewBox="0 0 %[1]d %[1]d">`+
		`<rect width="100%%" height="100%%" fill="#ece9e4"/>`+
		`<text x="50%%" y="50%%" fill="#8a857d" font-family="sans-serif" font-size="%[2]d" text-anchor="middle" dominant-baseline="middle">No image</text>`+
		`</svg>`, size, size/12)
}

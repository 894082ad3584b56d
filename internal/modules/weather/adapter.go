package weather

import (
	"fmt"
	"strconv"

	"github.com/aristath/outfitter/internal/domain"
)

// Accessory targets per weather class
const (
	AccessoryTargetProtective = 2
	AccessoryTargetMild       = 1
)

// Adapt decides outerwear inclusion and the accessory target from the weather.
// Cold or rainy weather keeps the full outerwear pool and asks for two
// accessories. Otherwise outerwear is limited to items priced within the total
// budget maximum, keeping the full pool when that filter empties it.
func Adapt(pc domain.PipelineContext, candidates domain.CandidateMap) domain.AdaptedCandidates {
	w := pc.Weather
	protective := w.IsCold || w.IsRainy

	adapted := domain.AdaptedCandidates{
		Candidates:       candidates,
		IncludeOuterwear: protective,
		AccessoryCount:   AccessoryTargetMild,
		WeatherSummary:   Summary(w),
	}

	if protective {
		adapted.AccessoryCount = AccessoryTargetProtective
		return adapted
	}

	affordable := make([]domain.CandidateItem, 0, len(candidates.Outerwear))
	for _, item := range candidates.Outerwear {
		if item.Price <= pc.Budget.Max {
			affordable = append(affordable, item)
		}
	}
	if len(affordable) > 0 {
		adapted.Candidates.Outerwear = affordable
	}

	return adapted
}

// Summary renders "label, 18C, Clouds"
func Summary(w domain.WeatherContext) string {
	return fmt.Sprintf("%s, %sC, %s", w.LocationLabel, strconv.FormatFloat(w.TemperatureC, 'f', -1, 64), w.Condition)
}

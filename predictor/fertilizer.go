package predictor

// DefaultFertilizer 没有专门推荐时的肥料
const DefaultFertilizer = "Standard NPK 20-20-20 fertilizer recommended"

var fertilizers = map[string]string{
	"rice":        "NPK 10-26-26, 2.5 bags per acre",
	"maize":       "NPK 20-20-20, 2 bags per acre",
	"chickpea":    "NPK 10-26-26, 1.5 bags per acre",
	"kidneybeans": "NPK 20-10-10, 1.5 bags per acre",
	"pigeonpeas":  "NPK 18-46-0, 1 bag per acre",
	"mothbeans":   "NPK 20-20-0, 1 bag per acre",
	"mungbean":    "NPK 20-40-0, 1 bag per acre",
	"blackgram":   "NPK 10-26-26, 1 bag per acre",
	"lentil":      "NPK 20-10-10, 1 bag per acre",
	"pomegranate": "NPK 15-15-15, 3 bags per acre",
	"banana":      "NPK 14-14-14, 3 bags per acre",
	"mango":       "NPK 20-10-10, 2 bags per acre",
	"grapes":      "NPK 10-20-20, 2 bags per acre",
	"watermelon":  "NPK 15-15-15, 2 bags per acre",
	"muskmelon":   "NPK 15-15-15, 2 bags per acre",
	"apple":       "NPK 20-20-20, 2 bags per acre",
	"orange":      "NPK 15-15-15, 2 bags per acre",
	"papaya":      "NPK 20-20-20, 2 bags per acre",
	"coconut":     "NPK 15-15-15, 2 bags per acre",
	"cotton":      "NPK 20-10-10, 2 bags per acre",
	"jute":        "NPK 10-26-26, 1.5 bags per acre",
	"coffee":      "NPK 20-20-20, 2 bags per acre",
}

// Fertilizer 返回作物对应的肥料推荐
func Fertilizer(crop string) string {
	if f, ok := fertilizers[crop]; ok {
		return f
	}
	return DefaultFertilizer
}

// Crops 返回所有支持的作物
func Crops() []string {
	crops := make([]string, 0, len(cropCentroids))
	for c := range cropCentroids {
		crops = append(crops, c)
	}
	return crops
}

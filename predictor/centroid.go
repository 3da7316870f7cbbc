package predictor

import "math"

// 各作物在 N, P, K, 温度, 湿度, pH, 降雨量 上的均值
var cropCentroids = map[string]Features{
	"rice":        {79.9, 47.6, 39.9, 23.7, 82.3, 6.4, 236.2},
	"maize":       {77.8, 48.4, 19.8, 22.4, 65.1, 6.2, 84.8},
	"chickpea":    {40.1, 67.8, 79.9, 18.9, 16.9, 7.3, 80.1},
	"kidneybeans": {20.8, 67.5, 20.1, 20.1, 21.6, 5.7, 105.9},
	"pigeonpeas":  {20.7, 67.7, 20.3, 27.7, 48.1, 5.8, 149.5},
	"mothbeans":   {21.4, 48.0, 20.2, 28.2, 53.2, 6.8, 51.2},
	"mungbean":    {21.0, 47.3, 19.9, 28.5, 85.5, 6.7, 48.4},
	"blackgram":   {40.0, 67.5, 19.2, 30.0, 65.1, 7.1, 67.9},
	"lentil":      {18.8, 68.4, 19.4, 24.5, 64.8, 6.9, 45.7},
	"pomegranate": {18.9, 18.8, 40.2, 21.8, 90.1, 6.4, 107.5},
	"banana":      {100.2, 82.0, 50.1, 27.4, 80.4, 6.0, 104.6},
	"mango":       {20.1, 27.2, 29.9, 31.2, 50.2, 5.8, 94.7},
	"grapes":      {23.2, 132.5, 200.1, 23.8, 81.9, 6.0, 69.6},
	"watermelon":  {99.4, 17.0, 50.2, 25.6, 85.2, 6.5, 50.8},
	"muskmelon":   {100.3, 17.7, 50.1, 28.7, 92.3, 6.4, 24.7},
	"apple":       {20.8, 134.2, 199.9, 22.6, 92.3, 5.9, 112.7},
	"orange":      {19.6, 16.6, 10.0, 22.8, 92.2, 7.0, 110.5},
	"papaya":      {49.9, 59.1, 50.0, 33.7, 92.4, 6.7, 142.6},
	"coconut":     {22.0, 16.9, 30.6, 27.4, 94.8, 6.0, 175.7},
	"cotton":      {117.8, 46.2, 19.6, 24.0, 79.8, 6.9, 80.4},
	"jute":        {78.4, 46.9, 40.0, 25.0, 79.6, 6.7, 175.0},
	"coffee":      {101.2, 28.7, 29.9, 25.5, 58.9, 6.8, 158.1},
}

// 每个特征的标准差，用于标准化距离
var featureScale = Features{36.9, 32.9, 50.6, 5.1, 22.3, 0.77, 55.0}

// NearestCentroid 以标准化欧氏距离选择最近的作物质心
type NearestCentroid struct {
	centroids map[string]Features
	scale     Features
}

// NewNearestCentroid 使用内置质心创建模型
func NewNearestCentroid() *NearestCentroid {
	return &NearestCentroid{centroids: cropCentroids, scale: featureScale}
}

// Predict 返回距离最近的作物，距离相同时取字典序较小者
func (m *NearestCentroid) Predict(f Features) (string, error) {
	best := ""
	bestDist := math.Inf(1)
	for crop, c := range m.centroids {
		var d float64
		for i := range f {
			diff := (f[i] - c[i]) / m.scale[i]
			d += diff * diff
		}
		if d < bestDist || (d == bestDist && crop < best) {
			best, bestDist = crop, d
		}
	}
	if best == "" {
		return "", ErrUnknownCrop
	}
	return best, nil
}

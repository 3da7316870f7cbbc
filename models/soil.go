package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// 土壤样本字段名，顺序即模型输入顺序
const (
	FieldNitrogen    = "nitrogen"
	FieldPhosphorus  = "phosphorus"
	FieldPotassium   = "potassium"
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldPH          = "ph"
	FieldRainfall    = "rainfall"
)

// SoilFields 七个必填字段
var SoilFields = []string{
	FieldNitrogen, FieldPhosphorus, FieldPotassium,
	FieldTemperature, FieldHumidity, FieldPH, FieldRainfall,
}

// Bounds 输入控件的取值范围，Max 为 0 表示无上限
type Bounds struct {
	Min  float64
	Max  float64
	Step float64
	Unit string
}

// FieldBounds 仅供输入层提示使用，客户端不做范围校验
var FieldBounds = map[string]Bounds{
	FieldNitrogen:    {Min: 0, Step: 0.1, Unit: "mg/kg"},
	FieldPhosphorus:  {Min: 0, Step: 0.1, Unit: "mg/kg"},
	FieldPotassium:   {Min: 0, Step: 0.1, Unit: "mg/kg"},
	FieldTemperature: {Min: 0, Step: 0.1, Unit: "°C"},
	FieldHumidity:    {Min: 0, Max: 100, Step: 0.1, Unit: "%"},
	FieldPH:          {Min: 0, Max: 14, Step: 0.1},
	FieldRainfall:    {Min: 0, Step: 0.1, Unit: "mm"},
}

// SoilSample 用户在表单中输入的土壤与气候参数，保持原始文本
type SoilSample struct {
	Nitrogen    string `json:"nitrogen"`
	Phosphorus  string `json:"phosphorus"`
	Potassium   string `json:"potassium"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	PH          string `json:"ph"`
	Rainfall    string `json:"rainfall"`
}

// Values 按 SoilFields 顺序返回字段值
func (s SoilSample) Values() []string {
	return []string{
		s.Nitrogen, s.Phosphorus, s.Potassium,
		s.Temperature, s.Humidity, s.PH, s.Rainfall,
	}
}

// Missing 返回为空的字段名
func (s SoilSample) Missing() []string {
	var missing []string
	for i, v := range s.Values() {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, SoilFields[i])
		}
	}
	return missing
}

// Set 按字段名赋值
func (s *SoilSample) Set(field, value string) error {
	switch field {
	case FieldNitrogen:
		s.Nitrogen = value
	case FieldPhosphorus:
		s.Phosphorus = value
	case FieldPotassium:
		s.Potassium = value
	case FieldTemperature:
		s.Temperature = value
	case FieldHumidity:
		s.Humidity = value
	case FieldPH:
		s.PH = value
	case FieldRainfall:
		s.Rainfall = value
	default:
		return fmt.Errorf("unknown soil field %q", field)
	}
	return nil
}

// Measurement 接受 JSON 数字或数字字符串
type Measurement struct {
	Raw     string
	Present bool
}

// UnmarshalJSON 解析数字或字符串形式的数值
func (m *Measurement) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Measurement{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		m.Raw = strings.TrimSpace(s)
		m.Present = m.Raw != ""
		return nil
	}
	m.Raw = string(data)
	m.Present = true
	return nil
}

// Float 转换为浮点数
func (m Measurement) Float() (float64, error) {
	return strconv.ParseFloat(m.Raw, 64)
}

// PredictRequest 作物预测请求体
type PredictRequest struct {
	Nitrogen    Measurement `json:"nitrogen"`
	Phosphorus  Measurement `json:"phosphorus"`
	Potassium   Measurement `json:"potassium"`
	Temperature Measurement `json:"temperature"`
	Humidity    Measurement `json:"humidity"`
	PH          Measurement `json:"ph"`
	Rainfall    Measurement `json:"rainfall"`
}

// Floats 按 SoilFields 顺序解析七个字段
func (r PredictRequest) Floats() ([]float64, error) {
	ms := []Measurement{
		r.Nitrogen, r.Phosphorus, r.Potassium,
		r.Temperature, r.Humidity, r.PH, r.Rainfall,
	}
	out := make([]float64, len(ms))
	for i, m := range ms {
		if !m.Present {
			return nil, fmt.Errorf("%s is required", SoilFields[i])
		}
		v, err := m.Float()
		if err != nil {
			return nil, fmt.Errorf("could not convert %s to float: %q", SoilFields[i], m.Raw)
		}
		out[i] = v
	}
	return out, nil
}

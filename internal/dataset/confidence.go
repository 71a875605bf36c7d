package dataset

import (
	"encoding/json"
	"log"
	"os"
)

// ConfidencePath is the one-shot confidence file written next to a label file.
func ConfidencePath(labelPath string) string { return labelPath + ".json" }

// ReadConfidences consumes the confidence file of labelPath. The file is
// removed after reading whether or not it parsed. A missing or malformed
// file yields nil.
func ReadConfidences(labelPath string) []float64 {
	path := ConfidencePath(labelPath)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil {
		log.Printf("confidences: %v", err)
	}
	confs, err := ParseConfidences(raw)
	if err != nil {
		log.Printf("confidences %s: %v", path, err)
		return nil
	}
	return confs
}

// ParseConfidences accepts an array of numbers or of objects carrying conf
// or confidence, or an object whose confs or detections field is such an
// array.
func ParseConfidences(raw []byte) ([]float64, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	switch v := doc.(type) {
	case []any:
		return readConfArray(v), nil
	case map[string]any:
		if arr, ok := v["confs"].([]any); ok {
			return readConfArray(arr), nil
		}
		if arr, ok := v["detections"].([]any); ok {
			return readConfArray(arr), nil
		}
	}
	return nil, nil
}

func readConfArray(arr []any) []float64 {
	var out []float64
	for _, e := range arr {
		switch v := e.(type) {
		case float64:
			out = append(out, v)
		case map[string]any:
			if c, ok := v["conf"]; ok {
				out = append(out, number(c))
			} else if c, ok := v["confidence"]; ok {
				out = append(out, number(c))
			}
		}
	}
	return out
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}

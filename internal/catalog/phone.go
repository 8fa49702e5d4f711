// Package catalog provides the phone catalog model and its query layer.
package catalog

import (
	"fmt"
	"strings"
)

// Phone is a single catalog record.
type Phone struct {
	ID             int64    `json:"id"`
	Brand          string   `json:"brand"`
	Model          string   `json:"model"`
	Price          float64  `json:"price"`
	ReleaseYear    int      `json:"releaseYear"`
	OS             string   `json:"os"`
	RAM            int      `json:"ram"`
	Storage        int      `json:"storage"`
	DisplayType    string   `json:"displayType"`
	DisplaySize    float64  `json:"displaySize"`
	Resolution     string   `json:"resolution"`
	RefreshRate    int      `json:"refreshRate"`
	CameraMain     int      `json:"cameraMain"`
	CameraFront    int      `json:"cameraFront"`
	CameraFeatures []string `json:"cameraFeatures"`
	Battery        int      `json:"battery"`
	Charging       string   `json:"charging"`
	Processor      string   `json:"processor"`
	Connectivity   []string `json:"connectivity"`
	Sensors        []string `json:"sensors"`
	Features       []string `json:"features"`
	Weight         float64  `json:"weight"`
	Dimensions     string   `json:"dimensions"`
	Rating         float64  `json:"rating"`
	StockStatus    string   `json:"stockStatus"`
	Category       string   `json:"category"`
	Colours        []string `json:"colours"`
}

// DedupKey identifies a phone for cross-query deduplication. Two rows with
// the same brand, model and price are the same phone.
func (p Phone) DedupKey() string {
	return fmt.Sprintf("%s-%s-%g", strings.ToLower(p.Brand), strings.ToLower(p.Model), p.Price)
}

// DisplayName returns the human-readable name used in responses.
func (p Phone) DisplayName() string {
	return strings.TrimSpace(p.Brand + " " + p.Model)
}

package apimodel

type Layout struct {
	Pages    int    `json:"pages"`
	Columns  int    `json:"columns"`
	On       bool   `json:"on"`
	Inverted bool   `json:"inverted"`
	Contrast int    `json:"contrast"`
	Tiles    []Tile `json:"tiles"`
}

type Tile struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	StartPage   int    `json:"start_page"`
	StartColumn int    `json:"start_column"`
	EndPage     int    `json:"end_page"`
	EndColumn   int    `json:"end_column"`
	Text        string `json:"text,omitempty"`
	Dirty       bool   `json:"dirty"`
}

type TextRequest struct {
	Text string `json:"text"`
	Font string `json:"font,omitempty"`
}

package models

// ExcalidrawDocument is the root of a .excalidraw file: a flat element
// list in paint order plus the app state and embedded image files.
type ExcalidrawDocument struct {
	Type     string                     `json:"type"`
	Version  int                        `json:"version"`
	Source   string                     `json:"source"`
	Elements []*ExcalidrawElement       `json:"elements"`
	AppState ExcalidrawAppState         `json:"appState"`
	Files    map[string]ExcalidrawFile  `json:"files"`
}

// ExcalidrawAppState holds viewer defaults. Only the fields the editor
// needs to open the document are populated.
type ExcalidrawAppState struct {
	GridSize            *int            `json:"gridSize"`
	ViewBackgroundColor string          `json:"viewBackgroundColor"`
	ScrollX             float64         `json:"scrollX,omitempty"`
	ScrollY             float64         `json:"scrollY,omitempty"`
	Zoom                *ExcalidrawZoom `json:"zoom,omitempty"`
}

// ExcalidrawZoom wraps the zoom factor the way the editor serializes it.
type ExcalidrawZoom struct {
	Value float64 `json:"value"`
}

// ExcalidrawFile is one embedded image, keyed by fileId.
type ExcalidrawFile struct {
	MimeType string `json:"mimeType"`
	ID       string `json:"id"`
	DataURL  string `json:"dataURL"`
}

// ExcalidrawElement is one drawable element. Shape, text, linear and
// image fields coexist on the same struct as in the wire format; only
// the fields matching Type are populated.
type ExcalidrawElement struct {
	ID              string               `json:"id"`
	Type            string               `json:"type"`
	X               float64              `json:"x"`
	Y               float64              `json:"y"`
	Width           float64              `json:"width"`
	Height          float64              `json:"height"`
	Angle           float64              `json:"angle"`
	StrokeColor     string               `json:"strokeColor"`
	BackgroundColor string               `json:"backgroundColor"`
	FillStyle       string               `json:"fillStyle"`
	StrokeWidth     int                  `json:"strokeWidth"`
	StrokeStyle     string               `json:"strokeStyle"`
	Roughness       int                  `json:"roughness"`
	Opacity         int                  `json:"opacity"`
	GroupIDs        []string             `json:"groupIds"`
	FrameID         *string              `json:"frameId"`
	Roundness       *ExcalidrawRoundness `json:"roundness"`
	BoundElements   []BoundElement       `json:"boundElements"`
	Locked          bool                 `json:"locked"`
	Seed            int64                `json:"seed"`
	VersionNonce    int64                `json:"versionNonce"`
	IsDeleted       bool                 `json:"isDeleted"`
	Link            *string              `json:"link"`
	Updated         int64                `json:"updated"`

	// text elements
	Text          string  `json:"text,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	FontFamily    int     `json:"fontFamily,omitempty"`
	TextAlign     string  `json:"textAlign,omitempty"`
	VerticalAlign string  `json:"verticalAlign,omitempty"`
	Baseline      int     `json:"baseline,omitempty"`
	ContainerID   *string `json:"containerId,omitempty"`
	OriginalText  string  `json:"originalText,omitempty"`
	LineHeight    float64 `json:"lineHeight,omitempty"`

	// linear elements (line, arrow)
	Points             [][2]float64       `json:"points,omitempty"`
	LastCommittedPoint *[2]float64        `json:"lastCommittedPoint,omitempty"`
	StartBinding       *ExcalidrawBinding `json:"startBinding,omitempty"`
	EndBinding         *ExcalidrawBinding `json:"endBinding,omitempty"`
	StartArrowhead     *string            `json:"startArrowhead,omitempty"`
	EndArrowhead       *string            `json:"endArrowhead,omitempty"`

	// image elements
	FileID string    `json:"fileId,omitempty"`
	Scale  []float64 `json:"scale,omitempty"`
}

// ExcalidrawRoundness describes corner rounding (type 2 = ellipse-style,
// type 3 = adaptive radius).
type ExcalidrawRoundness struct {
	Type  int     `json:"type"`
	Value float64 `json:"value,omitempty"`
}

// ExcalidrawBinding anchors a linear element's endpoint to a shape.
type ExcalidrawBinding struct {
	ElementID string  `json:"elementId"`
	Focus     float64 `json:"focus"`
	Gap       float64 `json:"gap"`
}

// BoundElement is a shape's back-reference to a bound arrow or label.
type BoundElement struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Element type constants.
const (
	ElementRectangle = "rectangle"
	ElementEllipse   = "ellipse"
	ElementDiamond   = "diamond"
	ElementText      = "text"
	ElementLine      = "line"
	ElementArrow     = "arrow"
	ElementImage     = "image"
)

// NewExcalidrawDocument creates an empty document with editor defaults.
func NewExcalidrawDocument() *ExcalidrawDocument {
	return &ExcalidrawDocument{
		Type:     "excalidraw",
		Version:  2,
		Source:   "https://excalidraw.com",
		Elements: make([]*ExcalidrawElement, 0),
		AppState: ExcalidrawAppState{
			ViewBackgroundColor: "#ffffff",
		},
		Files: make(map[string]ExcalidrawFile),
	}
}

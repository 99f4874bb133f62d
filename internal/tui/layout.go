package tui

const (
	compactWidthBreakpoint  = 100
	compactHeightBreakpoint = 24
)

type uiLayout struct {
	Width  int
	Height int

	Compact bool

	HeaderHeight int
	NavHeight    int
	FooterHeight int
	BodyHeight   int

	MainWidth      int
	InspectorWidth int

	CompactMainHeight      int
	CompactInspectorHeight int
}

func computeLayout(width, height int) uiLayout {
	if width < 40 {
		width = 40
	}
	if height < 16 {
		height = 16
	}

	layout := uiLayout{
		Width:        width,
		Height:       height,
		HeaderHeight: 3,
		NavHeight:    2,
		FooterHeight: 3,
	}
	layout.BodyHeight = maxInt(6, height-layout.HeaderHeight-layout.NavHeight-layout.FooterHeight)

	layout.Compact = width < compactWidthBreakpoint || height < compactHeightBreakpoint
	if layout.Compact {
		layout.MainWidth = width
		layout.InspectorWidth = width
		layout.CompactInspectorHeight = maxInt(4, layout.BodyHeight/3)
		layout.CompactMainHeight = maxInt(4, layout.BodyHeight-layout.CompactInspectorHeight)
		return layout
	}

	layout.InspectorWidth = clampInt(width*32/100, 30, 56)
	layout.MainWidth = maxInt(40, width-layout.InspectorWidth-1)
	return layout
}

// mainSize is the main pane's outer size for the current layout.
func (l uiLayout) mainSize() (int, int) {
	if l.Compact {
		return l.Width, l.CompactMainHeight
	}
	return l.MainWidth, l.BodyHeight
}

func (l uiLayout) inspectorSize() (int, int) {
	if l.Compact {
		return l.Width, l.CompactInspectorHeight
	}
	return l.InspectorWidth, l.BodyHeight
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

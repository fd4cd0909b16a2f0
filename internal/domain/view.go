package domain

// View represents the active screen of the terminal client
type View int

const (
	ViewOrders View = iota
	ViewTimeline
	ViewStats
)

// String returns the display name of the view
func (v View) String() string {
	switch v {
	case ViewOrders:
		return "Orders"
	case ViewTimeline:
		return "Timeline"
	case ViewStats:
		return "Stats"
	default:
		return "Unknown"
	}
}

// Shortcut returns the keyboard shortcut for the view
func (v View) Shortcut() string {
	switch v {
	case ViewOrders:
		return "o"
	case ViewTimeline:
		return "t"
	case ViewStats:
		return "s"
	default:
		return ""
	}
}

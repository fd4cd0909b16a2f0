package presenter

import (
	"github.com/robertguss/factorydesk/internal/domain"
)

// Language selects the label table
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

// ParseLanguage returns the language for a code, defaulting to English
func ParseLanguage(code string) Language {
	if Language(code) == Arabic {
		return Arabic
	}
	return English
}

var labels = map[Language]map[string]string{
	English: {
		"stage.received":         "Received",
		"stage.dyeing":           "Dyeing",
		"stage.back_from_dyeing": "Back from dyeing",
		"stage.stitching":        "Stitching",
		"stage.quality_check":    "Quality check",
		"stage.ready":            "Ready",
		"stage.delivered":        "Delivered",

		"status.pending":    "Pending",
		"status.processing": "Processing",
		"status.completed":  "Completed",

		"state.completed": "Done",
		"state.current":   "In progress",
		"state.pending":   "Waiting",

		"timeline.in_stage_for": "in stage for",
		"timeline.progress":     "Progress",
		"timeline.pieces":       "pcs",
	},
	Arabic: {
		"stage.received":         "تم الاستلام",
		"stage.dyeing":           "في الصباغة",
		"stage.back_from_dyeing": "عاد من الصباغة",
		"stage.stitching":        "في الخياطة",
		"stage.quality_check":    "فحص الجودة",
		"stage.ready":            "جاهز",
		"stage.delivered":        "تم التسليم",

		"status.pending":    "قيد الانتظار",
		"status.processing": "قيد التنفيذ",
		"status.completed":  "مكتمل",

		"state.completed": "منجز",
		"state.current":   "جارٍ العمل",
		"state.pending":   "بانتظار",

		"timeline.in_stage_for": "في المرحلة منذ",
		"timeline.progress":     "التقدم",
		"timeline.pieces":       "قطعة",
	},
}

// Label resolves a label key for a language, falling back to English and
// then to the key itself
func Label(lang Language, key string) string {
	if l, ok := labels[lang][key]; ok {
		return l
	}
	if l, ok := labels[English][key]; ok {
		return l
	}
	return key
}

// StageLabel returns the localized stage name
func StageLabel(lang Language, stage domain.Stage) string {
	return Label(lang, stage.LabelKey)
}

// StatusLabel returns the localized order status
func StatusLabel(lang Language, status domain.OrderStatus) string {
	return Label(lang, "status."+string(status))
}

// StateLabel returns the localized display state
func StateLabel(lang Language, state domain.DisplayState) string {
	return Label(lang, "state."+string(state))
}

var categoryIcons = map[domain.StageCategory]string{
	domain.CategoryIntake:     "📥",
	domain.CategoryDyeing:     "🎨",
	domain.CategoryStitching:  "🧵",
	domain.CategoryInspection: "🔍",
	domain.CategoryDispatch:   "🚚",
}

// Icon returns the icon for a stage category
func Icon(category domain.StageCategory) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "•"
}

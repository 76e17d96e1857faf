package dates

import "time"

// monthNames maps lowercase English and Polish month words, including Polish
// genitive forms and ASCII-folded spellings, to months.
var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,

	"styczeń": time.January, "styczen": time.January, "stycznia": time.January, "sty": time.January,
	"luty": time.February, "lutego": time.February, "lut": time.February,
	"marzec": time.March, "marca": time.March,
	"kwiecień": time.April, "kwiecien": time.April, "kwietnia": time.April, "kwi": time.April,
	"maj": time.May, "maja": time.May,
	"czerwiec": time.June, "czerwca": time.June, "cze": time.June,
	"lipiec": time.July, "lipca": time.July, "lip": time.July,
	"sierpień": time.August, "sierpien": time.August, "sierpnia": time.August, "sie": time.August,
	"wrzesień": time.September, "wrzesien": time.September, "września": time.September,
	"wrzesnia": time.September, "wrz": time.September,
	"październik": time.October, "pazdziernik": time.October, "października": time.October,
	"pazdziernika": time.October, "paź": time.October, "paz": time.October,
	"listopad": time.November, "listopada": time.November, "lis": time.November,
	"grudzień": time.December, "grudzien": time.December, "grudnia": time.December, "gru": time.December,
}

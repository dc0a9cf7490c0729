package reference

import (
	"time"
)

// Pubdate is a publication date packed as YYYYMMDD. Unknown month or day
// are zero, so 19850000 is "some time in 1985".
type Pubdate int

// NewPubdate packs year, month and day.
func NewPubdate(year, month, day int) Pubdate {
	return Pubdate(year*10000 + month*100 + day)
}

// Year returns the year part.
func (p Pubdate) Year() int { return int(p) / 10000 }

// Month returns the month part, 0 when unknown.
func (p Pubdate) Month() int { return int(p) / 100 % 100 }

// Day returns the day part, 0 when unknown.
func (p Pubdate) Day() int { return int(p) % 100 }

// Time converts the date to a time.Time, treating unknown month or day as
// the first.
func (p Pubdate) Time() time.Time {
	month, day := p.Month(), p.Day()
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(p.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

var firstDay = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// DaysSince1900 returns the number of days between 1900-01-01 and p.
func (p Pubdate) DaysSince1900() int {
	return int(p.Time().Sub(firstDay).Hours() / 24)
}

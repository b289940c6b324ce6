/*
french.go - French public holidays and school vacation windows

PURPOSE:
  Default FactsProvider for deployments in France. Covers the eight fixed
  national holidays plus approximate school vacation windows. The movable
  feasts (Easter Monday, Ascension, Pentecost) shift every year and are
  deliberately left to an external calendar feed; the fixed set is what the
  risk heuristics were calibrated against.

VACATION WINDOWS:
  School vacations vary by academic zone; the windows here are the rough
  union used for risk scoring, not an authoritative zone calendar:
    Winter     Feb 1  - Feb 15
    Spring     Apr 15 - Apr 30
    Summer     Jul 1  - Aug 31
    Toussaint  Oct 20 - Nov 5
    Christmas  Dec 20 - Dec 31

SEE ALSO:
  - calendar.go: FactsProvider interface
*/
package calendar

import "time"

// FrenchCalendar implements FactsProvider for the French fixed holidays.
type FrenchCalendar struct{}

// NewFrenchCalendar returns the default French facts provider.
func NewFrenchCalendar() *FrenchCalendar { return &FrenchCalendar{} }

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

var frenchHolidays = []fixedHoliday{
	{time.January, 1, "Jour de l'An"},
	{time.May, 1, "Fête du Travail"},
	{time.May, 8, "Victoire 1945"},
	{time.July, 14, "Fête Nationale"},
	{time.August, 15, "Assomption"},
	{time.November, 1, "Toussaint"},
	{time.November, 11, "Armistice 1918"},
	{time.December, 25, "Noël"},
}

type vacationWindow struct {
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
	name       string
}

var frenchVacations = []vacationWindow{
	{time.February, 1, time.February, 15, "Vacances d'hiver"},
	{time.April, 15, time.April, 30, "Vacances de printemps"},
	{time.July, 1, time.August, 31, "Vacances d'été"},
	{time.October, 20, time.November, 5, "Vacances de la Toussaint"},
	{time.December, 20, time.December, 31, "Vacances de Noël"},
}

// Holiday returns the holiday name when d is a fixed French public holiday.
func (c *FrenchCalendar) Holiday(d Day) (string, bool) {
	for _, h := range frenchHolidays {
		if d.Month() == h.month && d.DayOfMonth() == h.day {
			return h.name, true
		}
	}
	return "", false
}

// SchoolVacation returns the vacation window name containing d, if any.
func (c *FrenchCalendar) SchoolVacation(d Day) (string, bool) {
	for _, w := range frenchVacations {
		start := NewDay(d.Year(), w.startMonth, w.startDay)
		end := NewDay(d.Year(), w.endMonth, w.endDay)
		// Windows never wrap a year boundary.
		if d.AfterOrEqual(start) && d.BeforeOrEqual(end) {
			return w.name, true
		}
	}
	return "", false
}

package sitekit

import (
	"sort"
	"time"
)

// Item is one loaded news post.
type Item struct {
	Filename string
	Date     time.Time
	dated    bool
	html     []byte
}

// NewItem takes the date of the post from the name.
func NewItem(name string, html []byte) Item {
	date, ok := DateFromFilename(name)
	return Item{Filename: name, Date: date, dated: ok, html: html}
}

func (i Item) Dated() bool {
	return i.dated
}

// DateLabel is the formatted date or "Kein Datum".
func (i Item) DateLabel() string {
	if !i.Dated() {
		return "Kein Datum"
	}
	return FormatDate(i.Date)
}

// Items sort newest first. Undated items go last.
type Items []Item

func (e Items) Len() int {
	return len(e)
}
func (e Items) Less(i, j int) bool {
	ei, ej := e[i], e[j]
	switch {
	case !ei.Dated():
		return false
	case !ej.Dated():
		return true
	}
	return ei.Date.After(ej.Date)
}
func (e Items) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
}

// Sort orders e in place, keeping the manifest order for equal dates.
func (e Items) Sort() {
	sort.Stable(e)
}

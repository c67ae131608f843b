// Package listview windows long lists for Bubble Tea views.
//
// Only the rows inside the viewport are rendered, so the form stays readable
// after thousands of rows have been loaded or added. The window follows the
// cursor and keeps it centered where the list allows it.
package listview

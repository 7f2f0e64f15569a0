package constants

// Byte offsets and widths for the positional item line. Offsets are
// zero-based and fixed for the whole file format.
const (
	CategoryStart = 0
	CategoryLen   = 2

	ProductTypeStart = 4
	ProductTypeLen   = 1

	CodeStart = 5
	CodeLen   = 6

	AmountStart = 11
	AmountLen   = 6

	ExpiryDaysStart = 17
	ExpiryDaysLen   = 3

	NameStart = 20
	NameLen   = 25

	NotesStart = 120
	NotesLen   = 50
)

// MinLineLength is the width the decoder requires. The notes field starts
// past it and is clipped to whatever the line actually carries.
const MinLineLength = 97

// StrictLineLength is the width the advisory validator requires, which is
// the start of the notes field.
const StrictLineLength = NotesStart

// DefaultFilePattern is the glob the watcher matches input file names against.
const DefaultFilePattern = "txitens.txt"

package data

import _ "embed"

// Timetable is the weekly schedule served by the development upstream.
//
//go:embed timetable.json
var Timetable []byte

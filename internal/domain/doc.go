// Package domain models Norwegian national test (nasjonale prøver) results
// per school, as published by the Norwegian Directorate for Education and
// Training (UDIR).
//
// # Data Source
//
// UDIR publishes one CSV export per school year and grade level. The map
// uses two of them: 5th grade results for primary schools (barneskole) and
// 8th/9th grade results for lower-secondary schools (ungdomsskole). The
// offline pipeline reads these exports, geocodes every school and writes a
// single JSON dataset that the map service loads at startup.
//
// # UDIR Data Conventions
//
// Subjects:
//
//	Engelsk  English
//	Lesing   Reading
//	Regning  Numeracy (math)
//
// Scores are scale points centered on 50 for the national average. A school
// may lack a score for any subject: the export then holds an empty cell or
// "*" (suppressed because too few pupils took the test). Missing scores are
// never treated as zero.
//
// School year format:
//
//	"YYYY-YY", e.g. "2025-26". The newest year is the current year; earlier
//	years are attached to each school as history.
//
// # Average and Color
//
// A school's average is the mean of its present subject scores only. A
// school with no present subject has no average and is shown gray.
// Otherwise the average is classified into fixed bands:
//
//	< 45      red
//	45 - 50   orange
//	50 - 55   lightgreen
//	>= 55     darkgreen
//
// Band boundaries belong to the upper band. See [Classify].
//
// # Keys
//
// School names are not unique across municipalities, so schools are keyed
// by name and municipality together. See [SchoolKey].
package domain

// Package model defines the core data structures used throughout everygarf.
//
// # Dates
//
// Date is a plain calendar day. Every strip is identified by one:
//
//	all := model.Range(model.FirstComic, model.Latest(time.Now()))
//	missing := model.Missing(all, existing)
//
// File names follow the YYYY-MM-DD convention, and DateFromFilename
// recovers the date from them, silently rejecting anything else.
//
// # Output Layout
//
// Layout and ImageFormat decide where a strip is written:
//
//	model.LayoutFlat.Path("/pics", d, model.FormatPNG) // /pics/2023-05-01.png
//	model.LayoutTree.Path("/pics", d, model.FormatPNG) // /pics/2023/05/01.png
//
// # Jobs
//
// Job pairs a date with an optional image URL taken from the URL cache:
//
//	jobs := model.NewJobs(missing, cachedURLs, concurrency)
package model

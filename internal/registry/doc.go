// Package registry knows which cube identifiers the SNB data API serves.
//
// The source of truth is a semicolon-delimited reference table with one
// header row followed by one (identifier, description) pair per line. A
// current copy of that table is embedded in the binary; an external file can
// be used instead for newer listings.
//
// # Usage
//
//	reg, err := registry.Default()
//	if !reg.IsValid("rentm") {
//	    // reject before issuing any network request
//	}
//	fmt.Println(reg.Describe())
package registry

// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

//go:build !windows

package filter

// isDirJunction is always false outside Windows: junctions are a
// Windows-only reparse point kind.
func isDirJunction(string) bool {
	return false
}

//go:build !rp2040

package strconvx

import "strconv"

// The goal is signature parity with strconv.
// Delegate straight through.

func Itoa(i int) string                                     { return strconv.Itoa(i) }
func Atoi(s string) (int, error)                            { return strconv.Atoi(s) }
func FormatUint(u uint64, base int) string                  { return strconv.FormatUint(u, base) }
func ParseUint(s string, base, bitSize int) (uint64, error) { return strconv.ParseUint(s, base, bitSize) }

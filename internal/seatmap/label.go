package seatmap

import (
	"strconv"
	"strings"
)

// LabelStyle selects how display row labels are spelled.
type LabelStyle string

const (
	LabelLetters LabelStyle = "letters" // A, B, ... Z, AA, AB
	LabelNumbers LabelStyle = "numbers" // 1, 2, 3
)

// RowLabel returns the display label for the i-th row counted from the
// stage (zero-based).
func RowLabel(style LabelStyle, i int) string {
	if style == LabelNumbers {
		if i < 0 {
			return ""
		}
		return strconv.Itoa(i + 1)
	}
	return indexToLetters(i)
}

// indexToLetters converts a zero-based index to A, B, ..., Z, AA, AB.
func indexToLetters(i int) string {
	if i < 0 {
		return ""
	}
	res := []byte{}
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// RowIndex is the inverse of RowLabel for the letter style: "A" is 0,
// "AA" is 26.  Numeric labels are accepted too ("1" is 0).
func RowIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return -1, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return -1, false
		}
		return n - 1, true
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

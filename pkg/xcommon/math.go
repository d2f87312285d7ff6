package xcommon

import "golang.org/x/exp/constraints"

func SafeDivision[T constraints.Integer | constraints.Float](a T, b T) T {
	if b == 0 {
		return 0
	}
	return a / b
}

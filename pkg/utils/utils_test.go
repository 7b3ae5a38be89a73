package utils

import (
	"reflect"
	"strconv"
	"testing"

	tassert "github.com/stretchr/testify/assert"
)

func TestCast(t *testing.T) {
	v, ok := Cast[int](3)
	tassert.True(t, ok)
	tassert.Equal(t, 3, v)
	_, ok = Cast[string](3)
	tassert.False(t, ok)
	v, ok = Cast[int](reflect.ValueOf(4))
	tassert.True(t, ok)
	tassert.Equal(t, 4, v)
}

func TestMapJoin(t *testing.T) {
	tassert.Equal(t, "1-2-3", MapJoin([]int{1, 2, 3}, strconv.Itoa, "-"))
	tassert.Nil(t, Map([]int{}, strconv.Itoa))
}

func TestSortedKeys(t *testing.T) {
	tassert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}

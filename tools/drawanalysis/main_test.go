package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerangementCount(t *testing.T) {
	want := []int{1, 0, 1, 2, 9, 44, 265}
	for n, w := range want {
		assert.Equal(t, w, derangementCount(n), "!%d", n)
	}
}

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank(t *testing.T) {
	corpus := []Document{
		{ID: 1, Title: "Robotics Workshop", Tags: []string{"tech"}, Body: "Build a line follower"},
		{ID: 2, Title: "Fest T-Shirt", Tags: []string{"merch", "robotics"}, Body: "Official tee"},
		{ID: 3, Title: "Music Night", Tags: []string{"culture"}, Body: "Bands and robots on stage"},
	}

	tests := []struct {
		name  string
		query string
		want  []uint
	}{
		{name: "empty query keeps corpus order", query: "  ", want: []uint{1, 2, 3}},
		{name: "title beats tag beats body", query: "robotics", want: []uint{1, 2}},
		{name: "prefix match", query: "robot", want: []uint{1, 2, 3}},
		{name: "case and punctuation insensitive", query: "SHIRT!", want: []uint{2}},
		{name: "multiple terms accumulate", query: "robot night", want: []uint{3, 1, 2}},
		{name: "no match", query: "chess", want: []uint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rank(tt.query, corpus))
		})
	}
}

package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNATSSubject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "topic channel", in: "Topic-currentTheme|1", want: "shellbus.Topic-currentTheme|1"},
		{name: "dotted topic name", in: "Topic-orders.orderSubmitted|2", want: "shellbus.Topic-orders%2EorderSubmitted|2"},
		{name: "wildcards", in: "a*b>c", want: "shellbus.a%2Ab%3Ec"},
		{name: "percent is escaped first", in: "50%.off", want: "shellbus.50%25%2Eoff"},
		{name: "whitespace", in: "a b", want: "shellbus.a%20b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NATSSubject(tt.in))
		})
	}
}

func TestRedisChannel(t *testing.T) {
	assert.Equal(t, "shellbus:Topic-theme|1", RedisChannel("Topic-theme|1"))
}

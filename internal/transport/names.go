package transport

import "strings"

const (
	subjectPrefix = "shellbus"
	redisPrefix   = "shellbus:"
)

// Channel names may contain dots, which NATS treats as token separators, and
// characters NATS reserves for wildcards.
var subjectEscaper = strings.NewReplacer(
	"%", "%25",
	".", "%2E",
	"*", "%2A",
	">", "%3E",
	" ", "%20",
	"\t", "%09",
)

// NATSSubject returns the subject a channel is relayed on.
func NATSSubject(name string) string {
	return subjectPrefix + "." + subjectEscaper.Replace(name)
}

// RedisChannel returns the Redis pub/sub channel a channel is relayed on.
func RedisChannel(name string) string {
	return redisPrefix + name
}

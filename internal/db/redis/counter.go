package redis

import (
	"context"
	"sort"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/meterd/internal/db"
)

// hincrAndSet applies HINCRBY to the first ARGV[1] field/amount pairs and
// HSET to the remaining field/value pairs, all inside one script call.
const hincrAndSet = `
local n = tonumber(ARGV[1])
local i = 2
for _ = 1, n do
  redis.call('HINCRBY', KEYS[1], ARGV[i], ARGV[i + 1])
  i = i + 2
end
while i <= #ARGV do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
  i = i + 2
end
return n
`

var hincrAndSetScript = rueidis.NewLuaScript(hincrAndSet)

// HIncrAndSet atomically increments counters and overwrites plain fields of a hash.
func (s *Store) HIncrAndSet(ctx context.Context, key string, incr map[string]int64, set map[string]string) error {
	if len(incr) == 0 && len(set) == 0 {
		return nil
	}

	args := make([]string, 0, 1+2*(len(incr)+len(set)))
	args = append(args, strconv.Itoa(len(incr)))
	for _, f := range sortedKeys(incr) {
		args = append(args, f, strconv.FormatInt(incr[f], 10))
	}
	for _, f := range sortedKeys(set) {
		args = append(args, f, set[f])
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := hincrAndSetScript.Exec(ctx, s.client, []string{key}, args).Error(); err != nil {
		return &db.Error{Op: db.OpHIncr, Err: err}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

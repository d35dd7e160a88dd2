package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/meterd/internal/db"
)

// multiChunk caps the commands sent in one DoMulti pipeline. A year-long
// stats range is 366 day hashes; longer ranges are split.
const multiChunk = 400

// hsetIfExists writes ARGV field/value pairs only when KEYS[1] already exists.
// Returns 1 when written, 0 when the key is missing.
const hsetIfExists = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`

var hsetIfExistsScript = rueidis.NewLuaScript(hsetIfExists)

// HSet writes hash fields, creating the key when missing.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: no fields", key)}
	}
	cmd := s.b().Hset().Key(key).FieldValue()
	for _, f := range sortedKeys(fields) {
		cmd = cmd.FieldValue(f, fields[f])
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HSetIfExists writes hash fields only when the key exists, as one atomic step.
// It reports whether the write happened.
func (s *Store) HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error) {
	if len(fields) == 0 {
		return false, &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: no fields", key)}
	}
	args := make([]string, 0, 2*len(fields))
	for _, f := range sortedKeys(fields) {
		args = append(args, f, fields[f])
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	n, err := hsetIfExistsScript.Exec(ctx, s.client, []string{key}, args).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpHSet, Err: err}
	}
	return n == 1, nil
}

// HGetAll returns every field of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	return m, nil
}

// HGetAllMulti pipelines HGETALL for each key, in chunks, and returns the maps
// in key order. Missing keys yield empty maps.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out := make([]map[string]string, 0, len(keys))
	for start := 0; start < len(keys); start += multiChunk {
		chunk := keys[start:min(start+multiChunk, len(keys))]
		maps, err := s.hgetAllPipeline(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, maps...)
	}
	return out, nil
}

func (s *Store) hgetAllPipeline(ctx context.Context, keys []string) ([]map[string]string, error) {
	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	out := make([]map[string]string, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = m
	}
	return out, nil
}

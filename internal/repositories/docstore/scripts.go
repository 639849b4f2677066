package docstore

import "github.com/redis/go-redis/v9"

// KEYS: doc, meta, all, unique keys..., then one index key per field/value pair.
// ARGV: base, id, doc, score, mode ("put" | "insert"), unique count, unique
// names..., then field/value index pairs.
// Stale index keys are rebuilt from the meta hash; they share the hash tag of
// base and so the slot of KEYS.
// Returns 1 on write, 0 when a unique key is taken, -1 when an insert finds
// the id already present.
var writeScript = redis.NewScript(`
local docKey, metaKey, allKey = KEYS[1], KEYS[2], KEYS[3]
local base, id, doc, score, mode = ARGV[1], ARGV[2], ARGV[3], ARGV[4], ARGV[5]
local nuniq = tonumber(ARGV[6])

if mode == 'insert' and redis.call('EXISTS', docKey) == 1 then
  return -1
end

for i = 1, nuniq do
  local owner = redis.call('GET', KEYS[3 + i])
  if owner and owner ~= id then
    return 0
  end
end

local existing = redis.call('ZSCORE', allKey, id)
if existing then
  score = existing
end

local old = redis.call('HGETALL', metaKey)
for i = 1, #old, 2 do
  local f = old[i]
  if string.sub(f, 1, 5) ~= 'uniq:' then
    redis.call('ZREM', base .. ':idx:' .. f .. ':' .. old[i + 1], id)
    redis.call('HDEL', metaKey, f)
  end
end

for i = 1, nuniq do
  redis.call('SET', KEYS[3 + i], id)
  redis.call('HSET', metaKey, 'uniq:' .. ARGV[6 + i], '1')
end

local k = 4 + nuniq
for i = 7 + nuniq, #ARGV, 2 do
  redis.call('ZADD', KEYS[k], score, id)
  redis.call('HSET', metaKey, ARGV[i], ARGV[i + 1])
  k = k + 1
end

redis.call('SET', docKey, doc)
redis.call('ZADD', allKey, score, id)
return 1
`)

// KEYS: doc, meta, all. ARGV: base, id. Returns 1 when the document existed.
var deleteScript = redis.NewScript(`
local docKey, metaKey, allKey = KEYS[1], KEYS[2], KEYS[3]
local base, id = ARGV[1], ARGV[2]

local meta = redis.call('HGETALL', metaKey)
for i = 1, #meta, 2 do
  local f = meta[i]
  if string.sub(f, 1, 5) == 'uniq:' then
    local key = base .. ':' .. f
    if redis.call('GET', key) == id then
      redis.call('DEL', key)
    end
  else
    redis.call('ZREM', base .. ':idx:' .. f .. ':' .. meta[i + 1], id)
  end
end

redis.call('DEL', metaKey)
redis.call('ZREM', allKey, id)
return redis.call('DEL', docKey)
`)

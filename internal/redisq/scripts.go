package redisq

import "github.com/go-redis/redis/v8"

// Все изменения состояния сообщения — Lua-скрипты: Redis выполняет их
// атомарно, поэтому проверка receipt и изменение ключей неразрывны.
//
// KEYS: 1 visible, 2 receipt, 3 count, 4 body, 5 sent, 6 dead

// receiveScript забирает самое раннее видимое сообщение.
// ARGV: 1 now (ms), 2 visible-until (ms), 3 token
var receiveScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #ids == 0 then
    return false
end
local id = ids[1]
redis.call('ZADD', KEYS[1], ARGV[2], id)
redis.call('HSET', KEYS[2], id, ARGV[3])
local count = redis.call('HINCRBY', KEYS[3], id, 1)
local body = redis.call('HGET', KEYS[4], id)
local sent = redis.call('HGET', KEYS[5], id) or '0'
return {id, body, count, sent}
`)

// deleteScript удаляет сообщение, если receipt актуален.
// ARGV: 1 id, 2 token
var deleteScript = redis.NewScript(`
if redis.call('HGET', KEYS[2], ARGV[1]) ~= ARGV[2] then
    return 0
end
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
redis.call('HDEL', KEYS[4], ARGV[1])
redis.call('HDEL', KEYS[5], ARGV[1])
return 1
`)

// delayScript переносит видимость сообщения и сбрасывает receipt.
// ARGV: 1 id, 2 token, 3 visible-at (ms)
var delayScript = redis.NewScript(`
if redis.call('HGET', KEYS[2], ARGV[1]) ~= ARGV[2] then
    return 0
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
return 1
`)

// deadScript переносит тело сообщения в список dead.
// ARGV: 1 id, 2 token
var deadScript = redis.NewScript(`
if redis.call('HGET', KEYS[2], ARGV[1]) ~= ARGV[2] then
    return 0
end
local body = redis.call('HGET', KEYS[4], ARGV[1])
if body then
    redis.call('LPUSH', KEYS[6], body)
end
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
redis.call('HDEL', KEYS[4], ARGV[1])
redis.call('HDEL', KEYS[5], ARGV[1])
return 1
`)

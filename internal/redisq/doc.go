// Package redisq реализует очередь отложенной доставки на Redis.
//
// Ключи очереди {name}:
//   - tweetsched:{name}:visible — ZSET, score — момент видимости (мс)
//   - tweetsched:{name}:body    — HASH id → тело
//   - tweetsched:{name}:receipt — HASH id → токен текущей доставки
//   - tweetsched:{name}:count   — HASH id → число доставок
//   - tweetsched:{name}:sent    — HASH id → время отправки (мс)
//   - tweetsched:{name}:dead    — LIST тел отклонённых сообщений
//   - tweetsched:{name}:exists  — маркер созданной очереди
//
// Receipt имеет вид "{id}:{token}". Токен меняется при каждой доставке.
package redisq
